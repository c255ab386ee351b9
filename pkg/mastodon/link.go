package mastodon

import "strings"

// nextLink extracts the target of the rel="next" relation from a Link
// header (RFC 8288 style, as Mastodon emits for pagination). Returns ""
// when the header carries no next relation.
func nextLink(header string) string {
	if header == "" {
		return ""
	}

	for _, link := range strings.Split(header, ",") {
		sections := strings.Split(link, ";")
		if len(sections) < 2 {
			continue
		}

		target := strings.TrimSpace(sections[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		target = strings.Trim(target, "<>")

		for _, param := range sections[1:] {
			param = strings.TrimSpace(param)
			if param == `rel="next"` || param == "rel=next" {
				return target
			}
		}
	}

	return ""
}
