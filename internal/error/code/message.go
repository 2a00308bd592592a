package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "success",
	ErrUnknown:         "unknown error",
	ErrBind:            "invalid request parameters",
	ErrValidation:      "request validation failed",
	ErrTokenInvalid:    "invalid authentication token",
	ErrTooManyRequests: "too many requests, please retry later",
	ErrUnauthenticated: "authentication credentials were not provided",
	ErrForbidden:       "you do not have permission to perform this action",
	ErrNotFound:        "not found",
	ErrConflict:        "request conflicts with current state",

	// 用户相关错误码
	ErrUserNotFound:          "user not found",
	ErrUserAlreadyExist:      "username already exists",
	ErrUserPasswordIncorrect: "invalid username or password",
	ErrOldPasswordIncorrect:  "old password incorrect",
	ErrUserInactive:          "user account is disabled",
	ErrInvalidRole:           "invalid role",

	// 公寓相关错误码
	ErrApartmentNotFound:     "apartment not found",
	ErrApartmentNumberExist:  "apartment number already exists",
	ErrTransferTargetInvalid: "user not found or not resident",
	ErrResidentHasApartment:  "resident already holds an apartment",

	// 账单相关错误码
	ErrInvoiceNotFound:        "invoice not found",
	ErrInvoiceStatusForbidden: "only administrators can change the payment status",

	// 储物柜相关错误码
	ErrLockerItemNotFound: "locker item not found",
	ErrLockerItemReceived: "locker item already received",

	// 投诉相关错误码
	ErrComplaintNotFound:        "complaint not found",
	ErrComplaintStatusForbidden: "only administrators can change the resolve status",

	// 问卷相关错误码
	ErrSurveyNotFound:         "survey not found",
	ErrSurveyResponseNotFound: "survey response not found",
	ErrSurveyAnswerInvalid:    "answer does not match the survey",
	ErrSurveyAlreadyAnswered:  "survey already answered",

	// 数据库相关错误码
	ErrDatabase:           "database error",
	ErrRecordNotFound:     "record not found",
	ErrServiceUnavailable: "service unavailable",

	// 文件存储相关错误码
	ErrFileMissing:  "file is required",
	ErrFileStore:    "failed to store file",
	ErrExportFailed: "export failed",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,
	ErrUnauthenticated: StatusUnauthorized,
	ErrForbidden:       StatusForbidden,
	ErrNotFound:        StatusNotFound,
	ErrConflict:        StatusConflict,

	// 用户相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusConflict,
	ErrUserPasswordIncorrect: StatusUnauthorized,
	ErrOldPasswordIncorrect:  StatusBadRequest,
	ErrUserInactive:          StatusUnauthorized,
	ErrInvalidRole:           StatusBadRequest,

	// 公寓相关错误码
	ErrApartmentNotFound:     StatusNotFound,
	ErrApartmentNumberExist:  StatusConflict,
	ErrTransferTargetInvalid: StatusBadRequest,
	ErrResidentHasApartment:  StatusConflict,

	// 账单相关错误码
	ErrInvoiceNotFound:        StatusNotFound,
	ErrInvoiceStatusForbidden: StatusForbidden,

	// 储物柜相关错误码
	ErrLockerItemNotFound: StatusNotFound,
	ErrLockerItemReceived: StatusConflict,

	// 投诉相关错误码
	ErrComplaintNotFound:        StatusNotFound,
	ErrComplaintStatusForbidden: StatusForbidden,

	// 问卷相关错误码
	ErrSurveyNotFound:         StatusNotFound,
	ErrSurveyResponseNotFound: StatusNotFound,
	ErrSurveyAnswerInvalid:    StatusBadRequest,
	ErrSurveyAlreadyAnswered:  StatusConflict,

	// 数据库相关错误码
	ErrDatabase:           StatusInternalServerError,
	ErrRecordNotFound:     StatusNotFound,
	ErrServiceUnavailable: StatusServiceUnavailable,

	// 文件存储相关错误码
	ErrFileMissing:  StatusBadRequest,
	ErrFileStore:    StatusInternalServerError,
	ErrExportFailed: StatusInternalServerError,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "unknown error"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
