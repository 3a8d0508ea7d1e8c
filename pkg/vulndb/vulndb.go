// Package vulndb holds the vulnerability signature database and matches
// service banners against it.
//
// A Database is immutable once built and safe for concurrent use. Products
// keep the order in which they appear in the source document, which fixes
// the order of the findings Match returns.
package vulndb

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/projectdiscovery/netrecon/pkg/types"
	"github.com/tidwall/gjson"
)

// ErrMalformed is returned for database documents that are not a JSON
// object of signature objects
var ErrMalformed = errors.New("malformed vulnerability database")

// versionPattern matches dotted numeric versions such as 2.4 or 2.4.10
var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)*`)

// Signature lists the vulnerable version prefixes of one product
type Signature struct {
	Product            string
	VulnerableVersions []string
	Notes              string
}

// Database is an ordered, read-only set of signatures
type Database struct {
	signatures []Signature
}

// New builds a database from signatures, in the given order
func New(signatures ...Signature) *Database {
	db := &Database{signatures: make([]Signature, 0, len(signatures))}
	for _, sig := range signatures {
		sig.VulnerableVersions = append([]string(nil), sig.VulnerableVersions...)
		db.signatures = append(db.signatures, sig)
	}
	return db
}

// Load reads and parses a database file
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vulnerability database %s: %w", path, err)
	}
	db, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// Parse decodes a document of the form
//
//	{"Apache": {"vulnerable_versions": ["2.4.1"], "notes": "CVE-..."}}
func Parse(data []byte) (*Database, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}

	var (
		signatures []Signature
		parseErr   error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		product := key.String()
		if !value.IsObject() {
			parseErr = fmt.Errorf("%w: entry %q must be an object", ErrMalformed, product)
			return false
		}
		sig := Signature{Product: product, Notes: value.Get("notes").String()}

		versions := value.Get("vulnerable_versions")
		if versions.Exists() && !versions.IsArray() {
			parseErr = fmt.Errorf("%w: %q vulnerable_versions must be an array", ErrMalformed, product)
			return false
		}
		versions.ForEach(func(_, version gjson.Result) bool {
			sig.VulnerableVersions = append(sig.VulnerableVersions, version.String())
			return true
		})
		signatures = append(signatures, sig)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return New(signatures...), nil
}

// Len returns the number of products
func (db *Database) Len() int {
	if db == nil {
		return 0
	}
	return len(db.signatures)
}

// Signatures returns a copy of the signatures in database order
func (db *Database) Signatures() []Signature {
	if db == nil {
		return nil
	}
	return append([]Signature(nil), db.signatures...)
}

// Match returns the findings of banner against the database. It returns nil
// when the banner or the database is empty and a non-nil, possibly empty,
// slice otherwise. Repeated version tokens and overlapping prefixes each
// produce their own finding.
func (db *Database) Match(banner string) []types.Finding {
	if banner == "" || db.Len() == 0 {
		return nil
	}

	findings := []types.Finding{}
	lowered := strings.ToLower(banner)
	var versions []string
	for _, sig := range db.signatures {
		if !strings.Contains(lowered, strings.ToLower(sig.Product)) {
			continue
		}
		if versions == nil {
			versions = versionPattern.FindAllString(banner, -1)
		}
		for _, version := range versions {
			for _, prefix := range sig.VulnerableVersions {
				if strings.HasPrefix(version, prefix) {
					findings = append(findings, types.Finding{
						Product: sig.Product,
						Version: version,
						Notes:   sig.Notes,
					})
				}
			}
		}
	}
	return findings
}

// Match is the function form of (*Database).Match
func Match(banner string, db *Database) []types.Finding {
	return db.Match(banner)
}
