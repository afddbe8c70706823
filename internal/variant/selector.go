package variant

// Selector decides whether a variant belongs to a slice of the plan
type Selector func(v Variant) bool

// All matches every variant
func All() Selector {
	return func(Variant) bool { return true }
}

// OfSourceSet matches the source-set grouping of a variant
func OfSourceSet(name string) Selector {
	return func(v Variant) bool { return v.SourceSet == name }
}

// OfFlavor matches variants whose selection contains flavor
func OfFlavor(flavor string) Selector {
	return func(v Variant) bool { return v.HasFlavor(flavor) }
}

// OfBuildType matches variants of the given build type. Plain source sets
// have no build type and never match.
func OfBuildType(buildType string) Selector {
	return func(v Variant) bool { return buildType != "" && v.BuildType == buildType }
}

// OfVariant matches a variant by exact name
func OfVariant(name string) Selector {
	return func(v Variant) bool { return v.Name == name }
}

// OfNonTest matches production variants
func OfNonTest() Selector {
	return func(v Variant) bool { return !v.IsTest() }
}

// OfTest matches unit-test and instrumented-test variants
func OfTest() Selector {
	return func(v Variant) bool { return v.IsTest() }
}

// And matches when every selector matches
func And(selectors ...Selector) Selector {
	return func(v Variant) bool {
		for _, s := range selectors {
			if !s(v) {
				return false
			}
		}
		return true
	}
}
