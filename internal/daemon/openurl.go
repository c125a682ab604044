package daemon

import (
	"log"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// openURL opens the URL in the user's default browser. Only http(s) URLs
// are handed to the OS opener; anything else is refused.
func (c *Coordinator) openURL(raw string) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		log.Printf("[daemon] refusing to open non-http url %q", raw)
		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", u.String())
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", u.String())
	default:
		cmd = exec.Command("xdg-open", u.String())
	}
	if err := cmd.Start(); err != nil {
		log.Printf("[daemon] failed to open %s: %v", u.String(), err)
		return
	}
	// Detach: the browser outlives us and we never wait on it.
	go func() { _ = cmd.Wait() }()
}
