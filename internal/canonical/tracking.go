package canonical

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTrackingParams lists query keys that carry attribution or analytics
// data rather than resource identity. Entries ending in "*" match by prefix.
// Matching is case-insensitive.
var DefaultTrackingParams = []string{
	// Campaign tagging
	"utm_*",
	"mtm_*",
	"pk_*",
	"hsa_*",

	// Click identifiers
	"gclid",
	"gclsrc",
	"dclid",
	"gbraid",
	"wbraid",
	"fbclid",
	"msclkid",
	"yclid",
	"twclid",
	"ttclid",
	"li_fat_id",
	"igshid",
	"epik",
	"rdt_cid",
	"sccid",

	// Email and marketing automation
	"mc_cid",
	"mc_eid",
	"_hsenc",
	"_hsmi",
	"mkt_tok",
	"vero_id",
	"vero_conv",
	"oly_anon_id",
	"oly_enc_id",
	"s_cid",

	// Analytics and session
	"_ga",
	"_gl",
	"_openstat",
	"ref_src",
	"ref_url",
	"spm",
	"scm",
}

// TrackingFile is the YAML document accepted by LoadTrackingParams.
//
//	tracking_params:
//	  - campaign_id
//	  - partner_*
type TrackingFile struct {
	TrackingParams []string `yaml:"tracking_params"`
}

// LoadTrackingParams reads additional tracking parameter patterns from a YAML file.
func LoadTrackingParams(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tracking params file: %w", err)
	}

	var file TrackingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tracking params file %s: %w", path, err)
	}

	params := make([]string, 0, len(file.TrackingParams))
	for _, p := range file.TrackingParams {
		if p = strings.TrimSpace(p); p != "" {
			params = append(params, p)
		}
	}
	return params, nil
}

// trackingMatcher answers whether a query key is a tracking parameter.
type trackingMatcher struct {
	exact    map[string]struct{}
	prefixes []string
}

func newTrackingMatcher(patterns []string) trackingMatcher {
	m := trackingMatcher{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if prefix != "" {
				m.prefixes = append(m.prefixes, prefix)
			}
			continue
		}
		m.exact[p] = struct{}{}
	}
	return m
}

func (m trackingMatcher) matches(key string) bool {
	key = strings.ToLower(key)
	if _, ok := m.exact[key]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
