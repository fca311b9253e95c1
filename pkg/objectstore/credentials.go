package objectstore

import (
	"encoding/json"
	"regexp"

	"github.com/pkg/errors"
)

// ErrCredentialParse is returned when no usable key pair can be extracted from
// the gateway's user output.
var ErrCredentialParse = errors.New("failed to parse object store credentials")

// Parse stages.
const (
	StageParsed    Stage = "parsed"
	StageRecovered Stage = "partially-recovered"
	StageFailed    Stage = "failed"
)

var (
	accessKeyPattern = regexp.MustCompile(`"access_key":\s*"([^"]+)"`)
	secretKeyPattern = regexp.MustCompile(`"secret_key":\s*"([^"]+)"`)
)

type (
	// Stage records how credentials were extracted.
	Stage string

	// Credentials is an S3 key pair.
	Credentials struct {
		AccessKey string
		SecretKey string
	}

	// ParseResult is the outcome of ParseCredentials.
	ParseResult struct {
		Credentials
		Stage Stage
	}

	userInfo struct {
		Keys []struct {
			AccessKey string `json:"access_key"`
			SecretKey string `json:"secret_key"`
		} `json:"keys"`
	}
)

// Complete reports whether both halves of the key pair are set.
func (c Credentials) Complete() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// ParseCredentials extracts the first key pair from `radosgw-admin user create`
// or `user info` output.
//
// The output is decoded as JSON first. Values that are still missing, either
// because the output is not valid JSON or because the decoded document lacks
// them, are then searched for with a pattern match over the raw text. The
// result is StageParsed when JSON decoding was enough, StageRecovered when the
// pattern match filled a gap, and StageFailed when no complete pair was found.
func ParseCredentials(raw string) ParseResult {
	var (
		res  ParseResult
		info userInfo
	)

	if err := json.Unmarshal([]byte(raw), &info); err == nil && len(info.Keys) > 0 {
		res.AccessKey = info.Keys[0].AccessKey
		res.SecretKey = info.Keys[0].SecretKey
	}

	if res.Complete() {
		res.Stage = StageParsed
		return res
	}

	if res.AccessKey == "" {
		res.AccessKey = firstMatch(accessKeyPattern, raw)
	}
	if res.SecretKey == "" {
		res.SecretKey = firstMatch(secretKeyPattern, raw)
	}

	if res.Complete() {
		res.Stage = StageRecovered
		return res
	}

	return ParseResult{Stage: StageFailed}
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}

	return m[1]
}
