package services

import (
	"errors"

	"condo-http-service/internal/error/code"

	"gorm.io/gorm"
)

// DomainError 业务错误，携带错误码，由控制器映射为 HTTP 响应
type DomainError struct {
	Code int
	Msg  string
}

func (e *DomainError) Error() string { return e.Msg }

func newDomainError(c int) *DomainError {
	return &DomainError{Code: c, Msg: code.GetMessage(c)}
}

// 业务错误
var (
	ErrValidation = newDomainError(code.ErrValidation)

	ErrUserNotFound          = newDomainError(code.ErrUserNotFound)
	ErrUserAlreadyExist      = newDomainError(code.ErrUserAlreadyExist)
	ErrUserPasswordIncorrect = newDomainError(code.ErrUserPasswordIncorrect)
	ErrOldPasswordIncorrect  = newDomainError(code.ErrOldPasswordIncorrect)
	ErrUserInactive          = newDomainError(code.ErrUserInactive)
	ErrInvalidRole           = newDomainError(code.ErrInvalidRole)
	ErrRoleImmutable         = &DomainError{Code: code.ErrInvalidRole, Msg: "role cannot be changed"}

	ErrApartmentNotFound     = newDomainError(code.ErrApartmentNotFound)
	ErrApartmentNumberExist  = newDomainError(code.ErrApartmentNumberExist)
	ErrTransferTargetInvalid = newDomainError(code.ErrTransferTargetInvalid)
	ErrResidentHasApartment  = newDomainError(code.ErrResidentHasApartment)

	ErrInvoiceNotFound        = newDomainError(code.ErrInvoiceNotFound)
	ErrInvoiceStatusForbidden = newDomainError(code.ErrInvoiceStatusForbidden)

	ErrLockerItemNotFound = newDomainError(code.ErrLockerItemNotFound)
	ErrLockerItemReceived = newDomainError(code.ErrLockerItemReceived)

	ErrComplaintNotFound        = newDomainError(code.ErrComplaintNotFound)
	ErrComplaintStatusForbidden = newDomainError(code.ErrComplaintStatusForbidden)

	ErrSurveyNotFound         = newDomainError(code.ErrSurveyNotFound)
	ErrSurveyResponseNotFound = newDomainError(code.ErrSurveyResponseNotFound)
	ErrSurveyAnswerInvalid    = newDomainError(code.ErrSurveyAnswerInvalid)
	ErrSurveyAlreadyAnswered  = newDomainError(code.ErrSurveyAlreadyAnswered)
)

// invalid returns a validation error with a specific message.
func invalid(msg string) *DomainError {
	return &DomainError{Code: ErrValidation.Code, Msg: msg}
}

// notFound maps gorm's missing-row error to the given domain error.
func notFound(err error, domainErr *DomainError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

// duplicate maps a unique-index violation to the given domain error. The
// pre-check queries catch the common case; this covers two writers racing past them.
func duplicate(err error, domainErr *DomainError) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainErr
	}
	return err
}
