package sentiment

// baseLexicon maps lower-case words to valence on a -4..4 scale.
var baseLexicon = map[string]float64{
	// general positive
	"good": 1.9, "great": 3.1, "excellent": 2.7, "amazing": 2.8, "awesome": 3.1,
	"best": 3.2, "better": 1.9, "love": 3.2, "loved": 2.9, "loving": 2.9,
	"like": 1.5, "liked": 1.8, "nice": 1.8, "happy": 2.7, "glad": 2.0,
	"win": 2.8, "wins": 2.7, "winning": 2.4, "won": 2.7, "winner": 2.8,
	"success": 2.7, "successful": 2.8, "strong": 2.3, "stronger": 2.1, "strength": 2.2,
	"positive": 2.6, "optimistic": 1.3, "optimism": 2.5, "confident": 2.2, "confidence": 2.3,
	"exciting": 2.2, "excited": 1.4, "impressive": 2.3, "impressed": 2.1, "beautiful": 2.9,
	"perfect": 2.7, "fantastic": 2.6, "wonderful": 2.7, "brilliant": 2.8, "solid": 1.5,
	"safe": 1.9, "secure": 1.4, "stable": 1.2, "benefit": 2.0, "benefits": 1.6,
	"opportunity": 1.8, "opportunities": 1.6, "promising": 2.2, "improve": 1.9, "improved": 2.1,
	"improvement": 2.0, "improving": 1.8, "recover": 1.7, "recovery": 1.4, "recovered": 1.6,
	"growth": 1.6, "growing": 1.3, "grow": 1.3, "gain": 2.0, "gains": 1.8,
	"gained": 1.6, "profit": 1.9, "profits": 1.9, "profitable": 2.0, "upgrade": 1.6,
	"upgraded": 1.6, "beat": 1.2, "beats": 1.1, "record": 0.6, "boost": 1.7,
	"boosted": 1.5, "support": 1.7, "supported": 1.3, "approve": 2.0, "approved": 1.8,
	"approval": 2.2, "agree": 1.5, "outperform": 1.8, "outperformed": 1.8, "upside": 1.7,
	"favorable": 2.1, "healthy": 1.7, "robust": 1.9, "innovative": 1.9, "innovation": 1.6,
	"lucky": 1.8, "fun": 2.3, "thanks": 1.9, "thank": 1.5, "cool": 1.3,
	"wow": 2.8, "yay": 2.4, "huge": 1.3, "top": 0.8, "rich": 2.6,
	"wealth": 2.2, "hope": 1.9, "hopeful": 2.2, "trust": 2.3, "reliable": 1.9,
	"undervalued": 1.1, "cheap": 0.3, "buy": 0.5, "bought": 0.4, "long": 0.2,
	"up": 0.3, "higher": 0.9, "high": 0.4, "rise": 1.2, "rises": 1.1,
	"rising": 1.1, "rose": 1.1, "climb": 1.0, "climbs": 1.0, "jump": 0.8,
	"jumps": 0.8, "soared": 2.0, "soaring": 2.0, "skyrocket": 2.2, "skyrocketing": 2.2,
	"bull": 1.0, "green": 0.8, "tendies": 1.8, "gainz": 1.8, "lambo": 1.5,

	// general negative
	"bad": -2.5, "worse": -2.1, "worst": -3.1, "terrible": -2.1, "horrible": -2.5,
	"awful": -2.0, "poor": -2.1, "hate": -2.7, "hated": -3.2, "hates": -1.9,
	"sad": -2.1, "angry": -2.3, "fear": -2.2, "fears": -1.8, "scared": -1.9,
	"afraid": -2.0, "worry": -1.9, "worried": -1.2, "worries": -2.2, "concern": -1.0,
	"concerns": -1.2, "concerned": -1.3, "risk": -1.1, "risks": -1.1, "risky": -1.4,
	"danger": -2.4, "dangerous": -2.1, "loss": -1.3, "losses": -1.7, "lose": -1.7,
	"losing": -1.6, "lost": -1.3, "loser": -2.4, "fail": -2.5, "failed": -2.3,
	"failure": -2.3, "fails": -1.8, "weak": -1.9, "weaker": -1.9, "weakness": -1.8,
	"negative": -2.7, "pessimistic": -1.5, "problem": -1.7, "problems": -1.7, "trouble": -1.7,
	"crisis": -3.1, "disaster": -3.1, "collapse": -2.2, "collapsed": -2.2, "bankrupt": -2.6,
	"bankruptcy": -2.6, "fraud": -2.8, "scam": -2.7, "scammed": -2.7, "lawsuit": -1.8,
	"sued": -1.6, "investigation": -1.0, "downgrade": -1.6, "downgraded": -1.7, "miss": -0.6,
	"missed": -1.2, "misses": -0.9, "cut": -1.1, "cuts": -1.0, "layoffs": -1.9,
	"layoff": -1.9, "recession": -2.2, "inflation": -0.8, "debt": -1.5, "default": -1.5,
	"decline": -1.3, "declined": -1.2, "declining": -1.5, "drop": -1.1, "dropped": -1.3,
	"drops": -1.1, "fall": -1.1, "falls": -1.2, "falling": -1.3, "fell": -1.3,
	"down": -0.5, "lower": -0.9, "low": -1.1, "sink": -1.3, "sinks": -1.3,
	"slump": -1.6, "slumped": -1.6, "tank": -1.2, "tanked": -1.8, "tanking": -1.8,
	"plunged": -1.9, "plunging": -1.9, "crashed": -2.2, "crashing": -2.3, "volatile": -0.9,
	"volatility": -0.8, "overvalued": -1.2, "bubble": -1.1, "sell": -0.4, "selloff": -1.8,
	"short": -0.3, "shorts": -0.4, "bear": -1.0, "red": -0.6, "bagholder": -1.7,
	"bagholders": -1.7, "rekt": -2.1, "wrong": -2.1, "ugly": -2.3, "stupid": -2.4,
	"dumb": -2.3, "hurt": -2.4, "hurts": -2.1, "pain": -2.3, "painful": -2.4,
	"panic": -2.3, "panicked": -2.0, "uncertain": -1.2, "uncertainty": -1.4, "warning": -1.4,
	"warn": -0.4, "warns": -0.4, "threat": -2.4, "threaten": -1.6, "delay": -1.3,
	"delayed": -0.9, "suspend": -1.3, "suspended": -2.1, "halt": -0.5, "halted": -0.9,
	"dilution": -1.3, "diluted": -1.3, "struggle": -2.0, "struggling": -1.7, "poorly": -1.8,
	"broke": -1.8, "broken": -2.1, "killed": -3.5, "kill": -3.7, "dead": -3.3,
	"die": -2.9, "dying": -2.9, "shit": -2.6, "crap": -1.6, "sucks": -1.5,
	"disappointing": -2.2, "disappointed": -1.9, "disappointment": -2.3, "regret": -1.8, "worthless": -1.9,
}

// negations flip the valence of the following words.
var negations = map[string]bool{
	"not": true, "no": true, "never": true, "none": true, "nobody": true,
	"nothing": true, "neither": true, "nor": true, "without": true, "cannot": true,
	"cant": true, "dont": true, "doesnt": true, "didnt": true, "isnt": true,
	"arent": true, "wasnt": true, "werent": true, "wont": true, "wouldnt": true,
	"shouldnt": true, "couldnt": true, "hasnt": true, "havent": true, "hadnt": true,
	"aint": true, "nope": true,
}

// intensifiers scale the valence of the next word up (positive) or down (negative).
var intensifiers = map[string]float64{
	"very": 0.293, "extremely": 0.293, "really": 0.293, "incredibly": 0.293, "super": 0.293,
	"totally": 0.293, "absolutely": 0.293, "hugely": 0.293, "so": 0.293, "most": 0.293,
	"more": 0.293, "highly": 0.293, "completely": 0.293, "insanely": 0.293, "massively": 0.293,
	"barely": -0.293, "slightly": -0.293, "somewhat": -0.293, "kinda": -0.293, "hardly": -0.293,
	"marginally": -0.293, "less": -0.293, "little": -0.293, "partly": -0.293, "sort": -0.293,
}
