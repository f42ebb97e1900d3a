package postgres

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/intrence/catalog/engine/core"
	"github.com/jackc/pgx/v5/pgxpool"
)

var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// propertyApplier extends a keyword/value DSN with the descriptor's SSL mode
// and extra properties.
type propertyApplier func(base, sslMode string, props map[string]string) (string, error)

// baseDSN renders the keyword/value connection string for one tier.
func baseDSN(d *Descriptor, tier Tier, cred Credential) string {
	return strings.Join([]string{
		dsnPair("host", d.host),
		dsnPair("port", strconv.Itoa(d.ports[tier])),
		dsnPair("dbname", d.database),
		dsnPair("user", cred.User),
		dsnPair("password", cred.Password),
	}, " ")
}

func dsnPair(k, v string) string {
	return k + "=" + quoteDSNValue(v)
}

func quoteDSNValue(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// validationBase is what each property is parsed against. It carries no
// credentials, so parse errors never echo the password.
const validationBase = "host='localhost'"

// applyConnectionProperties validates each setting on its own, so a failure
// names the offending key, then appends them all to base.
func applyConnectionProperties(base, sslMode string, props map[string]string) (string, error) {
	out := base
	check := validationBase
	if sslMode != "" {
		if !slices.Contains(sslModes, sslMode) {
			return "", &InvalidConnectionPropertyError{Property: "sslmode", Err: fmt.Errorf("unsupported mode %q", sslMode)}
		}
		out += " " + dsnPair("sslmode", sslMode)
		check += " " + dsnPair("sslmode", sslMode)
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := validPropertyKey(k); err != nil {
			return "", &InvalidConnectionPropertyError{Property: k, Err: err}
		}
		pair := dsnPair(k, props[k])
		if _, err := pgxpool.ParseConfig(check + " " + pair); err != nil {
			return "", &InvalidConnectionPropertyError{Property: k, Err: errors.New(core.RedactError(err))}
		}
		out += " " + pair
	}
	return out, nil
}

func validPropertyKey(k string) error {
	switch {
	case k == "":
		return errors.New("empty key")
	case strings.ContainsAny(k, " \t\n='\"\\"):
		return errors.New("key contains whitespace, quote or '='")
	case k == "password" || k == "user" || k == "host" || k == "port" || k == "dbname":
		return errors.New("connection target cannot be overridden by properties")
	}
	return nil
}
