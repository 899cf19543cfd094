package auditlog

import "strings"

const redacted = "<redacted>"

// secretFlags take a value that must never reach the audit log.
var secretFlags = map[string]bool{
	"--token":    true,
	"--password": true,
}

// SanitizeArgs returns args with secret flag values replaced.
func SanitizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if key, _, ok := strings.Cut(arg, "="); ok && secretFlags[key] {
			out = append(out, key+"="+redacted)
			continue
		}
		out = append(out, arg)
		if secretFlags[arg] {
			out = append(out, redacted)
			i++
		}
	}
	return out
}
