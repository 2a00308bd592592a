package access

import "errors"

var (
	// ErrUnauthenticated 未提供有效凭证
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	// ErrForbidden 已登录但权限不足
	ErrForbidden = errors.New("permission denied")
)

// Action 控制器动作名称
type Action string

const (
	ActionList           Action = "list"
	ActionRetrieve       Action = "retrieve"
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDestroy        Action = "destroy"
	ActionMe             Action = "me"
	ActionChangePassword Action = "change-password"
	ActionUploadAvatar   Action = "upload-avatar"
	ActionPaymentTotal   Action = "payment-total"
	ActionTransfer       Action = "transfer-ownership"
	ActionUploadProof    Action = "upload-proof"
	ActionExport         Action = "export"
	ActionReceive        Action = "receive"
	ActionResults        Action = "results"
)

// Safe reports whether the action only reads state.
func (a Action) Safe() bool {
	switch a {
	case ActionList, ActionRetrieve, ActionResults:
		return true
	}
	return false
}

// Policy 权限策略。HasPermission 在加载对象之前检查，
// HasObjectPermission 在对象加载之后按所有者检查。
type Policy interface {
	HasPermission(actor Actor, action Action) bool
	HasObjectPermission(actor Actor, action Action, ownerID uint) bool
}

type allowAny struct{}

func (allowAny) HasPermission(Actor, Action) bool             { return true }
func (allowAny) HasObjectPermission(Actor, Action, uint) bool { return true }

type authenticated struct{}

func (authenticated) HasPermission(actor Actor, _ Action) bool { return actor.Authenticated() }
func (authenticated) HasObjectPermission(actor Actor, _ Action, _ uint) bool {
	return actor.Authenticated()
}

type adminOrReadOnly struct{}

func (adminOrReadOnly) HasPermission(actor Actor, action Action) bool {
	return action.Safe() || actor.IsAdmin()
}

func (p adminOrReadOnly) HasObjectPermission(actor Actor, action Action, _ uint) bool {
	return p.HasPermission(actor, action)
}

type ownerOrAdmin struct{}

func (ownerOrAdmin) HasPermission(actor Actor, _ Action) bool { return actor.Authenticated() }
func (ownerOrAdmin) HasObjectPermission(actor Actor, _ Action, ownerID uint) bool {
	return actor.IsAdmin() || actor.Owns(ownerID)
}

var (
	// AllowAny 任何人
	AllowAny Policy = allowAny{}
	// Authenticated 任何已登录用户
	Authenticated Policy = authenticated{}
	// AdminOrReadOnly 只读动作对所有人开放，其余动作需要管理员
	AdminOrReadOnly Policy = adminOrReadOnly{}
	// OwnerOrAdmin 对象的所有者或管理员
	OwnerOrAdmin Policy = ownerOrAdmin{}
)

// deny picks 401 for anonymous callers and 403 for identified ones.
func deny(actor Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	return ErrForbidden
}

// Rules 每个动作对应的策略列表，所有策略都必须通过；未声明的动作一律拒绝
type Rules map[Action][]Policy

// Check runs the request-level half of every policy declared for action.
func (r Rules) Check(actor Actor, action Action) error {
	policies, ok := r[action]
	if !ok {
		return deny(actor)
	}
	for _, p := range policies {
		if !p.HasPermission(actor, action) {
			return deny(actor)
		}
	}
	return nil
}

// CheckObject runs the object-level half of every policy declared for action.
func (r Rules) CheckObject(actor Actor, action Action, ownerID uint) error {
	policies, ok := r[action]
	if !ok {
		return deny(actor)
	}
	for _, p := range policies {
		if !p.HasObjectPermission(actor, action, ownerID) {
			return deny(actor)
		}
	}
	return nil
}

// RequireOwnerOrAdmin is the object check used by services that load the object themselves.
func RequireOwnerOrAdmin(actor Actor, ownerID uint) error {
	if OwnerOrAdmin.HasObjectPermission(actor, "", ownerID) {
		return nil
	}
	return deny(actor)
}

// RequireAdmin fails unless the actor is an administrator.
func RequireAdmin(actor Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return deny(actor)
}
