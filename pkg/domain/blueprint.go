package domain

import "sort"

// RoleSpec declares how a role is filled and which roles it depends on.
// When Producer is set it takes precedence over Initial.
type RoleSpec struct {
	Initial   Component
	Producer  Producer
	DependsOn []Role
}

// Blueprint is a validated, immutable composition.
type Blueprint struct {
	roles        []Role
	descriptions map[Role]string
	specs        map[Role]RoleSpec
}

// Build validates roles and specs and returns the resulting Blueprint.
//
// It fails with *ValidationError when any dependency names a role missing
// from roles, and with *CompositionError when a role filled with a passive
// initial value declares dependencies. Producers are never invoked here, so
// roles filled by a producer are checked later, once their value exists.
func Build(roles map[Role]string, specs map[Role]RoleSpec) (*Blueprint, error) {
	bp := &Blueprint{
		roles:        make([]Role, 0, len(roles)),
		descriptions: make(map[Role]string, len(roles)),
		specs:        make(map[Role]RoleSpec, len(roles)),
	}

	for role, desc := range roles {
		bp.roles = append(bp.roles, role)
		bp.descriptions[role] = desc
	}
	sort.Slice(bp.roles, func(i, j int) bool { return bp.roles[i] < bp.roles[j] })

	for role, spec := range specs {
		bp.specs[role] = RoleSpec{
			Initial:   spec.Initial,
			Producer:  spec.Producer,
			DependsOn: dedupe(spec.DependsOn),
		}
	}

	if missing := bp.MissingDependencies(); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	if offending := bp.PassiveWithDependencies(); len(offending) > 0 {
		return nil, &CompositionError{Roles: offending}
	}

	return bp, nil
}

// MissingDependencies returns every dependency edge whose target is not a
// declared role, plus specs that were given for undeclared roles.
func (b *Blueprint) MissingDependencies() []MissingDependency {
	var missing []MissingDependency
	for role, spec := range b.specs {
		if !b.Has(role) {
			missing = append(missing, MissingDependency{Role: role})
		}
		for _, dep := range spec.DependsOn {
			if !b.Has(dep) {
				missing = append(missing, MissingDependency{Role: role, Dependency: dep})
			}
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		if missing[i].Role != missing[j].Role {
			return missing[i].Role < missing[j].Role
		}
		return missing[i].Dependency < missing[j].Dependency
	})
	return missing
}

// PassiveWithDependencies returns the roles whose initial value is not an
// actor yet declare dependencies. Producer roles are skipped.
func (b *Blueprint) PassiveWithDependencies() []Role {
	var offending []Role
	for _, role := range b.roles {
		spec, ok := b.specs[role]
		if !ok || spec.Producer != nil || len(spec.DependsOn) == 0 {
			continue
		}
		if Classify(spec.Initial) != CapabilityActor {
			offending = append(offending, role)
		}
	}
	return offending
}

// Roles returns the declared roles in lexical order.
func (b *Blueprint) Roles() []Role {
	out := make([]Role, len(b.roles))
	copy(out, b.roles)
	return out
}

// Has reports whether role is declared.
func (b *Blueprint) Has(role Role) bool {
	_, ok := b.descriptions[role]
	return ok
}

// Description returns the documentation string of role.
func (b *Blueprint) Description(role Role) string {
	return b.descriptions[role]
}

// Spec returns the spec of role. Declared roles without a spec report an
// empty spec, i.e. a nil passive value with no dependencies.
func (b *Blueprint) Spec(role Role) (RoleSpec, bool) {
	if !b.Has(role) {
		return RoleSpec{}, false
	}
	spec := b.specs[role]
	spec.DependsOn = b.DependenciesOf(role)
	return spec, true
}

// DependenciesOf returns the declared dependencies of role in declaration
// order.
func (b *Blueprint) DependenciesOf(role Role) []Role {
	deps := b.specs[role].DependsOn
	out := make([]Role, len(deps))
	copy(out, deps)
	return out
}

func dedupe(roles []Role) []Role {
	seen := make(map[Role]bool, len(roles))
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
