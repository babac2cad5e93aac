package command

import "strings"

// ExtractCommands scans buf for complete bracketed commands ("<...>") and
// returns their contents (without the brackets) along with whatever
// trailing partial command should be carried over to the next read, so a
// caller can feed a transport's line-oriented or byte-oriented stream
// through Dispatch one command at a time.
func ExtractCommands(buf string) (commands []string, remainder string) {
	for {
		start := strings.IndexByte(buf, '<')
		if start < 0 {
			return commands, ""
		}
		end := strings.IndexByte(buf[start:], '>')
		if end < 0 {
			return commands, buf[start:]
		}
		commands = append(commands, buf[start+1:start+end])
		buf = buf[start+end+1:]
	}
}
