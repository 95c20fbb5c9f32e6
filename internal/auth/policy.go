package auth

import "bhrc/backend/internal/apperrors"

// Action is an operation a caller attempts on a resource.
type Action string

const (
	ActionList         Action = "list"
	ActionRead         Action = "read"
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionSubmit       Action = "submit"
	ActionTrack        Action = "track"
	ActionUpdateStatus Action = "update_status"
	ActionApprove      Action = "approve"
	ActionRegister     Action = "register"
	ActionSubscribe    Action = "subscribe"
	ActionUnsubscribe  Action = "unsubscribe"
	ActionSend         Action = "send"
)

// Resource is a protected collection.
type Resource string

const (
	ResourceComplaints         Resource = "complaints"
	ResourceEvents             Resource = "events"
	ResourceEventRegistrations Resource = "event_registrations"
	ResourceMembers            Resource = "members"
	ResourceDonations          Resource = "donations"
	ResourceGallery            Resource = "gallery"
	ResourceSubscribers        Resource = "newsletter_subscribers"
	ResourceCampaigns          Resource = "newsletter_campaigns"
	ResourceAdmins             Resource = "admin_users"
)

// Rule grants an action on a resource to MinRole and every role above it.
// A MinRole of RoleAnonymous opens the action to everyone.
type Rule struct {
	Resource Resource
	Action   Action
	MinRole  Role
}

// DefaultRules is the permission table of the site.
var DefaultRules = []Rule{
	{ResourceComplaints, ActionSubmit, RoleAnonymous},
	{ResourceComplaints, ActionTrack, RoleAnonymous},
	{ResourceComplaints, ActionList, RoleAdmin},
	{ResourceComplaints, ActionRead, RoleAdmin},
	{ResourceComplaints, ActionUpdateStatus, RoleAdmin},
	{ResourceComplaints, ActionDelete, RoleAdmin},

	{ResourceEvents, ActionList, RoleAnonymous},
	{ResourceEvents, ActionRead, RoleAnonymous},
	{ResourceEvents, ActionRegister, RoleAnonymous},
	{ResourceEvents, ActionCreate, RoleEditor},
	{ResourceEvents, ActionUpdate, RoleEditor},
	{ResourceEvents, ActionDelete, RoleEditor},
	{ResourceEventRegistrations, ActionList, RoleEditor},

	{ResourceMembers, ActionCreate, RoleAnonymous},
	{ResourceMembers, ActionList, RoleAdmin},
	{ResourceMembers, ActionRead, RoleAdmin},
	{ResourceMembers, ActionUpdate, RoleAdmin},
	{ResourceMembers, ActionApprove, RoleAdmin},
	{ResourceMembers, ActionDelete, RoleAdmin},

	{ResourceDonations, ActionCreate, RoleAnonymous},
	{ResourceDonations, ActionList, RoleAdmin},
	{ResourceDonations, ActionRead, RoleAdmin},
	{ResourceDonations, ActionUpdate, RoleAdmin},
	{ResourceDonations, ActionDelete, RoleSuperAdmin},

	{ResourceGallery, ActionList, RoleAnonymous},
	{ResourceGallery, ActionRead, RoleAnonymous},
	{ResourceGallery, ActionCreate, RoleEditor},
	{ResourceGallery, ActionUpdate, RoleEditor},
	{ResourceGallery, ActionDelete, RoleEditor},

	{ResourceSubscribers, ActionSubscribe, RoleAnonymous},
	{ResourceSubscribers, ActionUnsubscribe, RoleAnonymous},
	{ResourceSubscribers, ActionList, RoleAdmin},
	{ResourceSubscribers, ActionRead, RoleAdmin},
	{ResourceSubscribers, ActionCreate, RoleAdmin},
	{ResourceSubscribers, ActionUpdate, RoleAdmin},
	{ResourceSubscribers, ActionDelete, RoleAdmin},

	{ResourceCampaigns, ActionList, RoleEditor},
	{ResourceCampaigns, ActionRead, RoleEditor},
	{ResourceCampaigns, ActionCreate, RoleEditor},
	{ResourceCampaigns, ActionUpdate, RoleEditor},
	{ResourceCampaigns, ActionDelete, RoleAdmin},
	{ResourceCampaigns, ActionSend, RoleAdmin},

	{ResourceAdmins, ActionList, RoleSuperAdmin},
	{ResourceAdmins, ActionCreate, RoleSuperAdmin},
}

type ruleKey struct {
	resource Resource
	action   Action
}

// Policy answers allow/deny questions from a rule table. Pairs without a rule are denied.
type Policy struct {
	rules map[ruleKey]Role
}

// NewPolicy indexes rules. A later rule for the same pair replaces an earlier one.
func NewPolicy(rules []Rule) *Policy {
	p := &Policy{rules: make(map[ruleKey]Role, len(rules))}
	for _, r := range rules {
		p.rules[ruleKey{r.Resource, r.Action}] = r.MinRole
	}
	return p
}

// Allow reports whether p may perform action on resource.
func (p *Policy) Allow(principal Principal, action Action, resource Resource) bool {
	minRole, ok := p.rules[ruleKey{resource, action}]
	if !ok {
		return false
	}
	if minRole == RoleAnonymous {
		return true
	}
	return principal.Authenticated() && principal.Role.AtLeast(minRole)
}

// Check is Allow returning an error: Unauthorized for anonymous callers and
// Forbidden for signed-in callers whose role is too low.
func (p *Policy) Check(principal Principal, action Action, resource Resource) error {
	if p.Allow(principal, action, resource) {
		return nil
	}
	if !principal.Authenticated() {
		return apperrors.NewUnauthorized("authentication required")
	}
	return apperrors.NewForbidden("you do not have permission to " + string(action) + " " + string(resource))
}
