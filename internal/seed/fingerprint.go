package seed

import (
	"fmt"

	"github.com/inful/mdfp"
)

// Fingerprint hashes the parts of a page that end up in the store, so a seed
// page and a stored page with the same slug, title and body match.
func Fingerprint(slug, title, body string) string {
	metadata := fmt.Sprintf("slug: %s\ntitle: %s", slug, title)
	return mdfp.CalculateFingerprintFromParts(metadata, body)
}
