package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide explains where both credentials come from
func ShowTokenGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "CREDENTIALS")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "DEV API key (required)")
	fmt.Fprintln(w, "   1. Open https://dev.to/settings/extensions")
	fmt.Fprintln(w, "   2. Under 'DEV Community API Keys', enter a description and generate a key")
	fmt.Fprintln(w, "   3. Paste it below, or export DEV_KEY")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "GitHub token (optional, enables follower enrichment)")
	fmt.Fprintln(w, "   1. Open https://github.com/settings/tokens")
	fmt.Fprintln(w, "   2. Create a fine-grained token; no scopes are needed for public profiles")
	fmt.Fprintln(w, "   3. Paste it below, or export GITHUB_TOKEN")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Secrets are stored in the system keychain when one is available.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}
