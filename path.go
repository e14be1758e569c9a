package sandfs

import "strings"

// PathInfo is the canonical form of a user-supplied path.
type PathInfo struct {
	// FullPath is the normalized absolute path, "/" for the root
	FullPath string
	// Name is the last path segment; empty for the root
	Name string
	// Parents holds the segments from the root down to the immediate parent
	Parents []string
}

// IsRoot reports whether the path names the top of the storage hierarchy.
func (p PathInfo) IsRoot() bool {
	return p.Name == ""
}

// ParsePath normalizes raw into an absolute path and its segment list.
// An empty input defaults to "/". Empty and "." segments are dropped and
// ".." pops the previous segment (a no-op at the root, never an error).
// Normalizing an already-normalized path is a no-op. ParsePath does no I/O
// and cannot fail.
func ParsePath(raw string) PathInfo {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "/"
	}

	stack := make([]string, 0, 8)
	for _, seg := range strings.Split(raw, "/") {
		switch seg {
		case "", ".":
			// skip
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}

	if len(stack) == 0 {
		return PathInfo{FullPath: "/"}
	}
	return PathInfo{
		FullPath: "/" + strings.Join(stack, "/"),
		Name:     stack[len(stack)-1],
		Parents:  stack[:len(stack)-1],
	}
}

// JoinPath appends name to the normalized directory path dir.
func JoinPath(dir, name string) string {
	return ParsePath(dir + "/" + name).FullPath
}
