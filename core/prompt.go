package core

import (
	"fmt"
	"os"
	"os/user"
	"strings"
)

// PromptInfo holds the values substituted into the prompt.
type PromptInfo struct {
	User string
	Host string
	Home string
	Root bool
}

// CurrentPromptInfo describes the user running the shell.
func CurrentPromptInfo() PromptInfo {
	info := PromptInfo{
		User: os.Getenv("USER"),
		Home: os.Getenv("HOME"),
		Root: os.Geteuid() == 0,
	}
	if u, err := user.Current(); err == nil {
		info.User = u.Username
		if info.Home == "" {
			info.Home = u.HomeDir
		}
	}
	if host, err := os.Hostname(); err == nil {
		info.Host = strings.SplitN(host, ".", 2)[0]
	}
	return info
}

// ExpandPrompt replaces the escapes in tmpl:
//
//	\u  user name
//	\h  host name up to the first dot
//	\w  working directory, with the home directory shown as ~
//	\p  pid of the shell
//	\$  # for root, $ for everyone else
func ExpandPrompt(tmpl string, info PromptInfo, wd string, pid int) string {
	if info.Home != "" && (wd == info.Home || strings.HasPrefix(wd, info.Home+"/")) {
		wd = "~" + strings.TrimPrefix(wd, info.Home)
	}

	sign := "$"
	if info.Root {
		sign = "#"
	}

	return strings.NewReplacer(
		`\u`, info.User,
		`\h`, info.Host,
		`\w`, wd,
		`\p`, fmt.Sprintf("%d", pid),
		`\$`, sign,
	).Replace(tmpl)
}
