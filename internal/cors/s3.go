package cors

import (
	"encoding/xml"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3XMLNamespace is the namespace of S3 bucket configuration documents
const S3XMLNamespace = "http://s3.amazonaws.com/doc/2006-03-01/"

// s3AllowedMethods are the only methods accepted in an S3 CORSRule
var s3AllowedMethods = map[string]bool{
	"GET":    true,
	"PUT":    true,
	"HEAD":   true,
	"POST":   true,
	"DELETE": true,
}

// ToS3Rules converts the configuration to S3 CORS rules. Methods S3 does not
// accept (OPTIONS is implied by S3) are returned in skipped, and rules left
// without any method are dropped.
func ToS3Rules(c Configuration) (rules []types.CORSRule, skipped []string) {
	for _, rule := range c {
		var methods []string
		for _, m := range rule.Methods {
			if s3AllowedMethods[m] {
				methods = append(methods, m)
			} else {
				skipped = append(skipped, m)
			}
		}
		if len(methods) == 0 {
			continue
		}
		rules = append(rules, types.CORSRule{
			AllowedOrigins: cloneStrings(rule.Origins),
			AllowedMethods: methods,
			ExposeHeaders:  cloneStrings(rule.ResponseHeaders),
			MaxAgeSeconds:  aws.Int32(int32(rule.MaxAgeSeconds)),
		})
	}
	return rules, skipped
}

// FromS3Rules converts S3 CORS rules back into a Configuration
func FromS3Rules(rules []types.CORSRule) Configuration {
	c := make(Configuration, 0, len(rules))
	for _, rule := range rules {
		c = append(c, Rule{
			Origins:         cloneStrings(rule.AllowedOrigins),
			Methods:         cloneStrings(rule.AllowedMethods),
			ResponseHeaders: cloneStrings(rule.ExposeHeaders),
			MaxAgeSeconds:   int(aws.ToInt32(rule.MaxAgeSeconds)),
		})
	}
	return c
}

// s3CORSConfiguration is the XML body accepted by PutBucketCors
type s3CORSConfiguration struct {
	XMLName xml.Name     `xml:"CORSConfiguration"`
	Xmlns   string       `xml:"xmlns,attr,omitempty"`
	Rules   []s3CORSRule `xml:"CORSRule"`
}

type s3CORSRule struct {
	AllowedOrigins []string `xml:"AllowedOrigin"`
	AllowedMethods []string `xml:"AllowedMethod"`
	AllowedHeaders []string `xml:"AllowedHeader,omitempty"`
	ExposeHeaders  []string `xml:"ExposeHeader,omitempty"`
	MaxAgeSeconds  *int32   `xml:"MaxAgeSeconds,omitempty"`
}

// MarshalS3XML renders S3 CORS rules as an indented CORSConfiguration document
func MarshalS3XML(rules []types.CORSRule) ([]byte, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no S3 compatible CORS rules to export")
	}

	doc := s3CORSConfiguration{Xmlns: S3XMLNamespace}
	for _, rule := range rules {
		doc.Rules = append(doc.Rules, s3CORSRule{
			AllowedOrigins: rule.AllowedOrigins,
			AllowedMethods: rule.AllowedMethods,
			AllowedHeaders: rule.AllowedHeaders,
			ExposeHeaders:  rule.ExposeHeaders,
			MaxAgeSeconds:  rule.MaxAgeSeconds,
		})
	}

	out, err := xml.MarshalIndent(doc, "", Indent)
	if err != nil {
		return nil, fmt.Errorf("failed to encode S3 CORS XML: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// UnmarshalS3XML parses a CORSConfiguration document into S3 CORS rules
func UnmarshalS3XML(data []byte) ([]types.CORSRule, error) {
	var doc s3CORSConfiguration
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode S3 CORS XML: %w", err)
	}

	rules := make([]types.CORSRule, 0, len(doc.Rules))
	for _, r := range doc.Rules {
		rules = append(rules, types.CORSRule{
			AllowedOrigins: r.AllowedOrigins,
			AllowedMethods: r.AllowedMethods,
			AllowedHeaders: r.AllowedHeaders,
			ExposeHeaders:  r.ExposeHeaders,
			MaxAgeSeconds:  r.MaxAgeSeconds,
		})
	}
	return rules, nil
}
