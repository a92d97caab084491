package value

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wago-dev/wdx/internal/status"
)

// AllowedValues restricts a numeric value (min/max/whitelist/blacklist) or,
// applied to an array's length, the number of elements it may carry.
type AllowedValues struct {
	Min      int64
	MinSet   bool
	Max      int64
	MaxSet   bool
	Whitelist []int64
	Blacklist []int64
}

// IsValid reports whether number satisfies the range and list constraints.
func (a *AllowedValues) IsValid(number int64) bool {
	if a == nil {
		return true
	}
	if a.MinSet && number < a.Min {
		return false
	}
	if a.MaxSet && number > a.Max {
		return false
	}
	for _, b := range a.Blacklist {
		if number == b {
			return false
		}
	}
	if len(a.Whitelist) > 0 {
		for _, w := range a.Whitelist {
			if number == w {
				return true
			}
		}
		return false
	}
	return true
}

// Constraint is the subset of a parameter (or method argument) definition
// that CheckParameterValue needs: its declared type/rank and the
// overrideable attributes that narrow what values are acceptable. The
// model package builds one of these from a resolved parameter definition
// before validating an incoming value; internal/value does not depend on
// internal/model to avoid an import cycle.
type Constraint struct {
	Type Type
	Rank Rank

	// Pattern is an ECMAScript-flavor regex; applies only when Type ==
	// String and Pattern != "". Go's RE2 engine does not support
	// backreferences or lookaround, a narrowing from the reference
	// engine accepted for the patterns this model actually uses.
	Pattern string

	// EnumMembers constrains EnumMember values to members of the
	// referenced enum; nil means the enum reference could not be
	// resolved, which fails every EnumMember value (value_not_possible).
	// Ignored for other types.
	EnumMembersResolved bool
	EnumMembers         []uint16

	// RefClassResolved / RefClassBasePaths apply to InstanceRef and
	// InstanceIdentityRef: whether at least one referenced class
	// resolved, and, for InstanceIdentityRef, the lower-cased base paths
	// a set reference may target.
	RefClassResolved  bool
	RefClassBasePaths []string

	AllowedValues *AllowedValues
	AllowedLength *AllowedValues
}

var ipv4Pattern = regexp.MustCompile(`^(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)

// CheckParameterValue is the canonical validator: it qualifies value if its
// type is still Unknown, checks rank and element types recursively for
// arrays, evaluates the string pattern, validates IPv4 form, checks enum
// membership, verifies instance_identity_ref base paths and instance
// numbers, and applies AllowedValues/AllowedLength.
func CheckParameterValue(v *Value, c *Constraint) status.Code {
	if v == nil {
		return status.ValueNull
	}
	if v.typ == Unknown {
		if err := v.SetTypeInternal(c.Type, c.Rank); err != nil {
			return status.WrongValueRepresentation
		}
	} else if v.typ != c.Type || v.rank != c.Rank {
		return status.WrongValueType
	}

	if c.Rank == Array {
		if c.AllowedLength != nil && !c.AllowedLength.IsValid(int64(len(v.items))) {
			return status.InvalidValue
		}
		for i := range v.items {
			item := &v.items[i]
			if code := checkScalar(item, c); status.HasError(code, status.General) {
				return code
			}
		}
		return status.NoErrorYet
	}
	return checkScalar(v, c)
}

// checkScalar applies the scalar-level checks (pattern, IPv4 form, enum
// membership, reference validity, allowed values) to a single scalar value
// already known to match c.Type.
func checkScalar(v *Value, c *Constraint) status.Code {
	if c.Pattern != "" && c.Type == String {
		re, err := regexp.Compile("^(?:" + c.Pattern + ")$")
		if err != nil || !re.MatchString(v.str) {
			return status.WrongValuePattern
		}
	}
	if c.Type == IPv4Address {
		if !ipv4Pattern.MatchString(v.str) {
			return status.WrongValueRepresentation
		}
	}
	if c.Type == EnumMember {
		if !c.EnumMembersResolved {
			return status.ValueNotPossible
		}
		ok := false
		for _, m := range c.EnumMembers {
			if m == uint16(v.u) {
				ok = true
				break
			}
		}
		if !ok {
			return status.ValueNotPossible
		}
	}
	if c.Type == InstanceRef {
		if !c.RefClassResolved {
			return status.ValueNotPossible
		}
	}
	if c.Type == InstanceIdentityRef && v.str != "" {
		if code := checkInstanceIdentityRef(v.str, c); status.HasError(code, status.General) {
			return code
		}
	}
	if c.AllowedValues != nil {
		number, ok := numericValue(v)
		if !ok || !c.AllowedValues.IsValid(number) {
			return status.InvalidValue
		}
	}
	return status.NoErrorYet
}

func checkInstanceIdentityRef(ref string, c *Constraint) status.Code {
	lastSlash := strings.LastIndexByte(ref, '/')
	if lastSlash <= 0 || lastSlash == len(ref)-1 {
		return status.InvalidValue
	}
	basePath := strings.ToLower(ref[:lastSlash])
	allowed := false
	for _, p := range c.RefClassBasePaths {
		if strings.ToLower(p) == basePath {
			allowed = true
			break
		}
	}
	if !allowed {
		return status.InvalidValue
	}
	instanceNo := ref[lastSlash+1:]
	n, err := strconv.ParseUint(instanceNo, 10, 32)
	if err != nil || n > uint64(InstanceIDMax) {
		return status.InvalidValue
	}
	return status.NoErrorYet
}

// numericValue extracts the integer magnitude of a scalar numeric Value for
// AllowedValues checks.
func numericValue(v *Value) (int64, bool) {
	switch v.typ {
	case Uint8, Uint16, Uint32, Uint64:
		return int64(v.u), true
	case Int8, Int16, Int32, Int64:
		return v.i, true
	case EnumMember, InstanceRef:
		return int64(v.u), true
	default:
		return 0, false
	}
}
