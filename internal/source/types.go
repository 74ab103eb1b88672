package source

import (
	"context"
	"encoding/json"
	"net/url"
)

// JSONGetter performs a GET and decodes the JSON response. *fetch.Client
// implements it.
type JSONGetter interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}

// listing is a social listing envelope.
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// postData is a t3 (link/self post).
type postData struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	Stickied    bool    `json:"stickied"`
}

// commentData is a t1 (comment). Replies is "" or a nested listing.
type commentData struct {
	ID         string          `json:"id"`
	LinkID     string          `json:"link_id"`
	Body       string          `json:"body"`
	Author     string          `json:"author"`
	Score      int             `json:"score"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"`
}

// articlesResponse is the article search envelope.
type articlesResponse struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`
}

type article struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}
