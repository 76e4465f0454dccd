package middlewares

import (
	"fmt"
	"net/http"

	"wolontariat/utils"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	mongodbadapter "github.com/casbin/mongodb-adapter/v3"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Resources and actions checked by RBACMiddleware
const (
	ResourceOffer       = "offer"
	ResourceEnrollment  = "enrollment"
	ResourceApplication = "application"
	ResourceProfile     = "profile"
	ResourceStats       = "stats"
	ResourceRating      = "rating"

	ActionCreate = "create"
	ActionUpdate = "update"
	ActionReview = "review"
	ActionWrite  = "write"
	ActionRead   = "read"
)

const RoleAdmin = "admin"

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var defaultPolicies = [][]string{
	{utils.RoleOrganization, ResourceOffer, ActionCreate},
	{utils.RoleOrganization, ResourceOffer, ActionUpdate},
	{utils.RoleOrganization, ResourceApplication, ActionReview},
	{utils.RoleVolunteer, ResourceEnrollment, ActionWrite},
	{utils.RoleVolunteer, ResourceEnrollment, ActionRead},
	{utils.RoleVolunteer, ResourceProfile, ActionCreate},
	{utils.RoleVolunteer, ResourceRating, ActionCreate},
	{utils.RoleTracker, ResourceStats, ActionUpdate},
}

var defaultRoles = [][]string{
	{RoleAdmin, utils.RoleOrganization},
	{RoleAdmin, utils.RoleTracker},
}

// NewEnforcer creates an enforcer holding the default policies in memory
func NewEnforcer(log *zap.Logger) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin enforcer: %w", err)
	}
	if err := ensureDefaultPolicies(enforcer, log); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// NewMongoEnforcer keeps policies in the casbin_rule collection so operators
// can grant extra permissions without a deploy.
func NewMongoEnforcer(uri string, log *zap.Logger) (*casbin.Enforcer, error) {
	adapter, err := mongodbadapter.NewAdapter(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin adapter: %w", err)
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin enforcer: %w", err)
	}
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	if err := ensureDefaultPolicies(enforcer, log); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// ensureDefaultPolicies adds missing defaults; existing rules are left alone
func ensureDefaultPolicies(enforcer *casbin.Enforcer, log *zap.Logger) error {
	for _, p := range defaultPolicies {
		exists, err := enforcer.HasPolicy(p[0], p[1], p[2])
		if err != nil {
			return fmt.Errorf("check policy: %w", err)
		}
		if exists {
			continue
		}
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("add policy %v: %w", p, err)
		}
		log.Debug("added default policy", zap.Strings("policy", p))
	}
	for _, g := range defaultRoles {
		exists, err := enforcer.HasGroupingPolicy(g[0], g[1])
		if err != nil {
			return fmt.Errorf("check role: %w", err)
		}
		if exists {
			continue
		}
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return fmt.Errorf("add role %v: %w", g, err)
		}
	}
	return nil
}

// RBACMiddleware checks that the caller's role may perform action on resource
func RBACMiddleware(enforcer *casbin.Enforcer, log *zap.Logger, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Role not found"})
			return
		}

		allowed, err := enforcer.Enforce(role, resource, action)
		if err != nil {
			log.Error("casbin enforce failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Permission check failed"})
			return
		}
		if !allowed {
			log.Debug("permission denied",
				zap.String("role", role),
				zap.String("resource", resource),
				zap.String("action", action))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
