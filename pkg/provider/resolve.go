package provider

import "strings"

type urlField struct {
	name string
	get  func(Result) string
}

// resultURLFields is the lookup order used by ResolveVideoURL.
var resultURLFields = []urlField{
	{"video_result[0].url", func(r Result) string {
		if len(r.VideoResult) == 0 {
			return ""
		}
		return r.VideoResult[0].URL
	}},
	{"video_url", func(r Result) string { return r.VideoURL }},
	{"url", func(r Result) string { return r.URL }},
	{"result_url", func(r Result) string { return r.ResultURL }},
}

// ResultURLFields returns the names of the fields ResolveVideoURL checks, in order.
func ResultURLFields() []string {
	names := make([]string, 0, len(resultURLFields))
	for _, f := range resultURLFields {
		names = append(names, f.name)
	}
	return names
}

// ResolveVideoURL returns the first non-empty result location of r, checking
// video_result[0].url, video_url, url and result_url in that order. The second
// return value names the field that matched.
func ResolveVideoURL(r Result) (string, string) {
	for _, f := range resultURLFields {
		if v := strings.TrimSpace(f.get(r)); v != "" {
			return v, f.name
		}
	}
	return "", ""
}
