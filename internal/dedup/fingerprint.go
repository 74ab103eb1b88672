package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/rickgao/tickersense/internal/model"
)

// Fingerprint hashes title, reference and creation time. The time is
// normalised to UTC at second precision; a zero time hashes as empty.
func Fingerprint(title, ref string, created time.Time) string {
	ts := ""
	if !created.IsZero() {
		ts = created.UTC().Truncate(time.Second).Format(time.RFC3339)
	}
	sum := md5.Sum([]byte(strings.TrimSpace(title) + ref + ts))
	return hex.EncodeToString(sum[:])
}

// ItemFingerprint fingerprints a raw item using its canonical URL, or
// "<source>:<origin id>" when it has none.
func ItemFingerprint(r model.RawItem) string {
	ref := CanonicalURL(r.URL)
	if ref == "" {
		ref = string(r.Source) + ":" + r.OriginID
	}
	return Fingerprint(r.Title, ref, r.CreatedAt)
}

// CanonicalURL lower-cases scheme and host, drops the fragment, tracking
// parameters and a trailing slash. Unparseable input is returned trimmed.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			lk := strings.ToLower(k)
			if strings.HasPrefix(lk, "utm_") || lk == "fbclid" || lk == "gclid" {
				q.Del(k)
			}
		}
		u.RawQuery = q.Encode()
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	return u.String()
}
