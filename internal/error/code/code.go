package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 业务规则冲突.
	StatusConflict = 409
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusServiceUnavailable - 503: 依赖服务不可用.
	StatusServiceUnavailable = 503
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
	// ErrUnauthenticated - 401: 需要登录.
	ErrUnauthenticated
	// ErrForbidden - 403: 权限不足.
	ErrForbidden
	// ErrNotFound - 404: 资源不存在.
	ErrNotFound
	// ErrConflict - 409: 业务规则冲突.
	ErrConflict
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 409: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户名或密码错误.
	ErrUserPasswordIncorrect
	// ErrOldPasswordIncorrect - 400: 旧密码错误.
	ErrOldPasswordIncorrect
	// ErrUserInactive - 401: 账户已停用.
	ErrUserInactive
	// ErrInvalidRole - 400: 无效的角色.
	ErrInvalidRole
)

// 公寓相关错误码 (102xxx).
const (
	// ErrApartmentNotFound - 404: 公寓不存在.
	ErrApartmentNotFound int = iota + 102000
	// ErrApartmentNumberExist - 409: 公寓号已存在.
	ErrApartmentNumberExist
	// ErrTransferTargetInvalid - 400: 目标用户不存在或不是住户.
	ErrTransferTargetInvalid
	// ErrResidentHasApartment - 409: 住户已拥有公寓.
	ErrResidentHasApartment
)

// 账单相关错误码 (103xxx).
const (
	// ErrInvoiceNotFound - 404: 账单不存在.
	ErrInvoiceNotFound int = iota + 103000
	// ErrInvoiceStatusForbidden - 403: 只有管理员可以修改账单状态.
	ErrInvoiceStatusForbidden
)

// 储物柜相关错误码 (104xxx).
const (
	// ErrLockerItemNotFound - 404: 储物柜物品不存在.
	ErrLockerItemNotFound int = iota + 104000
	// ErrLockerItemReceived - 409: 物品已领取，状态不可回退.
	ErrLockerItemReceived
)

// 投诉相关错误码 (105xxx).
const (
	// ErrComplaintNotFound - 404: 投诉不存在.
	ErrComplaintNotFound int = iota + 105000
	// ErrComplaintStatusForbidden - 403: 只有管理员可以修改处理状态.
	ErrComplaintStatusForbidden
)

// 问卷相关错误码 (106xxx).
const (
	// ErrSurveyNotFound - 404: 问卷不存在.
	ErrSurveyNotFound int = iota + 106000
	// ErrSurveyResponseNotFound - 404: 问卷答复不存在.
	ErrSurveyResponseNotFound
	// ErrSurveyAnswerInvalid - 400: 答案与问卷不匹配.
	ErrSurveyAnswerInvalid
	// ErrSurveyAlreadyAnswered - 409: 已提交过该问卷.
	ErrSurveyAlreadyAnswered
)

// 数据库相关错误码 (107xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 107000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
	// ErrServiceUnavailable - 503: 数据库不可用.
	ErrServiceUnavailable
)

// 文件存储相关错误码 (108xxx).
const (
	// ErrFileMissing - 400: 缺少上传文件.
	ErrFileMissing int = iota + 108000
	// ErrFileStore - 500: 文件保存失败.
	ErrFileStore
	// ErrExportFailed - 500: 导出失败.
	ErrExportFailed
)
