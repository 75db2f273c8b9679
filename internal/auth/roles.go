package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/item-service/internal/domain"
	apperrors "github.com/spec-kit/item-service/pkg/util"
)

// Operation classifies a guarded route.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
)

// Rule is the allow-set for one operation class.
type Rule struct {
	Allowed map[domain.Tier]struct{}
	Denied  string
}

// Policy maps each operation class to an explicit allow-set. Tiers are not
// compared by rank: delete admits full_access only.
type Policy map[Operation]Rule

// DefaultPolicy returns the service access rules.
func DefaultPolicy() Policy {
	return Policy{
		OpRead:   newRule("Read access required", domain.TierReadOnly, domain.TierReadWrite, domain.TierFullAccess),
		OpWrite:  newRule("Read/write access required", domain.TierReadWrite, domain.TierFullAccess),
		OpDelete: newRule("Full access required", domain.TierFullAccess),
	}
}

func newRule(denied string, allowed ...domain.Tier) Rule {
	set := make(map[domain.Tier]struct{}, len(allowed))
	for _, tier := range allowed {
		set[tier] = struct{}{}
	}
	return Rule{Allowed: set, Denied: denied}
}

// Authorize returns a Forbidden error when tier may not perform op.
// Unknown operations are denied.
func (p Policy) Authorize(tier domain.Tier, op Operation) error {
	rule, ok := p[op]
	if !ok {
		return apperrors.NewForbidden("operation not permitted")
	}
	if _, allowed := rule.Allowed[tier]; !allowed {
		return apperrors.NewForbidden(rule.Denied)
	}
	return nil
}

// RequireAccess must run after AuthMiddleware.Handle.
func RequireAccess(policy Policy, op Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return apperrors.NewUnauthenticated("Not authenticated")
		}
		if err := policy.Authorize(claims.Permissions, op); err != nil {
			return err
		}
		return c.Next()
	}
}
