package eval

import (
	"fmt"

	"acs/internal/domain"
	"acs/internal/graph"
)

// Decision is the outcome of evaluating a single (entity, uri, verb, scheme)
// request.
type Decision struct {
	Allowed bool
	// Matched is the permission tuple that decided the outcome, or nil if
	// no permission applied at all (default deny).
	Matched *domain.Permission
	// MatchedResource is the resource whose pattern the request's uri
	// matched and that Matched is attached to.
	MatchedResource *domain.Resource
	Reason string
	// InheritedFrom is the entity whose permission tuple decided the
	// outcome, when that entity differs from the entity being evaluated
	// (the decision was reached via group/role inheritance rather than a
	// direct grant or deny). Zero when the decision was direct or when no
	// permission applied at all.
	InheritedFrom domain.EntityID
	// InheritanceChain is the prefix of Graph.AncestorChain's breadth-first
	// visit order, from the evaluated entity up to and including the
	// deciding entity. It is not reduced to a single path: entities visited
	// before the deciding one appear in it even when they are not on the
	// route from self to InheritedFrom. Empty when no permission applied.
	InheritanceChain []domain.EntityID
}

// Evaluator answers permission checks against a Graph. It holds no state of
// its own; all mutable data lives in the Graph so the evaluator can be
// shared freely across reader goroutines.
type Evaluator struct {
	g *graph.Graph
}

// New returns an Evaluator backed by g.
func New(g *graph.Graph) *Evaluator {
	return &Evaluator{g: g}
}

// candidate is a resource that matched the requested URI, paired with how
// specifically it matched.
type candidate struct {
	resource *domain.Resource
	spec     specificity
}

// Evaluate answers whether entityID may perform verb against uri under
// scheme (§4.2). The algorithm:
//  1. Find every catalog resource whose pattern matches uri.
//  2. Walk entityID's inheritance chain (itself, its groups and their
//     ancestor groups, its roles and the roles attached to those groups).
//  3. Collect every permission tuple naming one of those entities and one
//     of the matched resources, for verb and scheme.
//  4. A Deny anywhere in that set wins outright, independent of how
//     specific its resource pattern is or how far up the chain it lives
//     (§4.2, §9: deny-anywhere-wins). Otherwise a Grant allows. With
//     neither present the default is deny.
func (e *Evaluator) Evaluate(entityID domain.EntityID, uri string, verb domain.Verb, scheme string) Decision {
	candidates := e.matchResources(uri)
	if len(candidates) == 0 {
		return Decision{Allowed: false, Reason: "no resource pattern matches the requested uri"}
	}

	chain := e.g.AncestorChain(entityID)

	var bestGrant *struct {
		perm *domain.Permission
		res  *domain.Resource
		spec specificity
		at   domain.EntityID
	}

	for idx, chainEntity := range chain {
		for _, p := range e.g.PermissionsForEntity(chainEntity) {
			if p.Verb != verb || p.Scheme != scheme {
				continue
			}
			for _, c := range candidates {
				if p.ResourceID != c.resource.ID {
					continue
				}
				if p.IsDeny() {
					d := Decision{
						Allowed:          false,
						Matched:          p,
						MatchedResource:  c.resource,
						Reason:           fmt.Sprintf("denied by permission held on entity %d", chainEntity),
						InheritanceChain: append([]domain.EntityID(nil), chain[:idx+1]...),
					}
					if chainEntity != entityID {
						d.InheritedFrom = chainEntity
					}
					return d
				}
				if bestGrant == nil || moreSpecific(c.spec, bestGrant.spec) {
					bestGrant = &struct {
						perm *domain.Permission
						res  *domain.Resource
						spec specificity
						at   domain.EntityID
					}{p, c.resource, c.spec, chainEntity}
				}
			}
		}
	}

	if bestGrant != nil {
		reason := "granted"
		if bestGrant.at != entityID {
			reason = fmt.Sprintf("granted at %d", bestGrant.at)
		}
		d := Decision{Allowed: true, Matched: bestGrant.perm, MatchedResource: bestGrant.res, Reason: reason}
		for idx, chainEntity := range chain {
			if chainEntity == bestGrant.at {
				d.InheritanceChain = append([]domain.EntityID(nil), chain[:idx+1]...)
				break
			}
		}
		if bestGrant.at != entityID {
			d.InheritedFrom = bestGrant.at
		}
		return d
	}
	return Decision{Allowed: false, Reason: "no matching grant in inheritance chain"}
}

func (e *Evaluator) matchResources(uri string) []candidate {
	var out []candidate
	for _, res := range e.g.ListResources() {
		if ok, spec := MatchURI(res.URI, uri); ok {
			out = append(out, candidate{resource: res, spec: spec})
		}
	}
	return out
}
