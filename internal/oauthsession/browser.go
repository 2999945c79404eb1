package oauthsession

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// openBrowser launches the user's default browser on url. It is
// best-effort: on any failure (no display, sandboxed environment, unknown
// platform) the caller falls back to printing the URL.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// promptURL writes the authorization URL to w for a user who must copy it
// manually, used when openBrowser fails or the session has no display.
func promptURL(w io.Writer, url string) {
	fmt.Fprintf(w, "mcporter: open the following URL to authorize access:\n\n  %s\n\n", url)
}
