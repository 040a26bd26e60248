// Package common defines shared constants and sentinel errors used across
// the server layers of SafePazz. Callers should use errors.Is to match these
// values. The message of every domain error is its stable identifier, so the
// HTTP boundary can send it to clients verbatim.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrorStateConflict = errors.New("state conflict")
)

// Registration and master password policy.
var (
	ErrInvalidEmailFormat               = errors.New("invalidEmailFormat")
	ErrEmailTooLong                     = errors.New("emailTooLong")
	ErrEmailAlreadyExists               = errors.New("emailAlreadyExists")
	ErrMasterPasswordTooShort           = errors.New("masterPasswordTooShort")
	ErrMasterPasswordMissingUppercase   = errors.New("masterPasswordMissingUppercase")
	ErrMasterPasswordMissingLowercase   = errors.New("masterPasswordMissingLowercase")
	ErrMasterPasswordMissingNumber      = errors.New("masterPasswordMissingNumber")
	ErrMasterPasswordMissingSpecialChar = errors.New("masterPasswordMissingSpecialChar")
	ErrMasterPasswordTooObvious         = errors.New("masterPasswordTooObvious")
	ErrPasswordConfirmationMismatch     = errors.New("passwordConfirmationMismatch")
	ErrMasterPasswordCannotBeEmail      = errors.New("masterPasswordCannotBeEmail")
	ErrSecurityQuestionRequired         = errors.New("securityQuestionRequired")
	ErrSecurityAnswerTooShort           = errors.New("securityAnswerTooShort")
	ErrSecurityAnswerTooLong            = errors.New("securityAnswerTooLong")
	ErrPhoneRequiredForTwoFactor        = errors.New("phoneRequiredForTwoFactor")
	ErrInvalidPhoneFormat               = errors.New("invalidPhoneFormat")
	ErrInvalidInactivityTimeout         = errors.New("invalidInactivityTimeout")
)

// Authentication and sessions.
var (
	ErrInvalidCredentials    = errors.New("invalidCredentials")
	ErrAccountLocked         = errors.New("accountLocked")
	ErrTwoFactorCodeRequired = errors.New("twoFactorCodeRequired")
	ErrInvalidTwoFactorCode  = errors.New("invalidTwoFactorCode")
	ErrInvalidSession        = errors.New("invalidSession")
	ErrSessionExpired        = errors.New("sessionExpired")
	ErrAuthenticationNeeded  = errors.New("authenticationRequired")
)

// Recovery.
var (
	ErrInvalidOrExpiredToken        = errors.New("invalidOrExpiredToken")
	ErrUserNotFound                 = errors.New("userNotFound")
	ErrIncorrectSecurityAnswer      = errors.New("incorrectSecurityAnswer")
	ErrNewPasswordCannotBeSameAsOld = errors.New("newPasswordCannotBeSameAsOld")
)

// Credential records.
var (
	ErrTitleRequired              = errors.New("titleRequired")
	ErrTitleTooLong               = errors.New("titleTooLong")
	ErrPasswordRequired           = errors.New("passwordRequired")
	ErrPasswordTooLong            = errors.New("passwordTooLong")
	ErrUsernameTooLong            = errors.New("usernameTooLong")
	ErrInvalidURL                 = errors.New("invalidUrl")
	ErrURLTooLong                 = errors.New("urlTooLong")
	ErrNotesTooLong               = errors.New("notesTooLong")
	ErrExpirationDateMustBeFuture = errors.New("expirationDateMustBeFuture")
	ErrPasswordNotFound           = errors.New("passwordNotFound")
	ErrUnauthorized               = errors.New("unauthorized")
)

// ErrorClass groups domain errors by how a caller is expected to react.
type ErrorClass int

const (
	ClassInternal ErrorClass = iota
	ClassValidation
	ClassAuthentication
	ClassForbidden
	ClassNotFound
)

var errorClasses = map[error]ErrorClass{
	ErrInvalidEmailFormat:               ClassValidation,
	ErrEmailTooLong:                     ClassValidation,
	ErrEmailAlreadyExists:               ClassValidation,
	ErrMasterPasswordTooShort:           ClassValidation,
	ErrMasterPasswordMissingUppercase:   ClassValidation,
	ErrMasterPasswordMissingLowercase:   ClassValidation,
	ErrMasterPasswordMissingNumber:      ClassValidation,
	ErrMasterPasswordMissingSpecialChar: ClassValidation,
	ErrMasterPasswordTooObvious:         ClassValidation,
	ErrPasswordConfirmationMismatch:     ClassValidation,
	ErrMasterPasswordCannotBeEmail:      ClassValidation,
	ErrSecurityQuestionRequired:         ClassValidation,
	ErrSecurityAnswerTooShort:           ClassValidation,
	ErrSecurityAnswerTooLong:            ClassValidation,
	ErrPhoneRequiredForTwoFactor:        ClassValidation,
	ErrInvalidPhoneFormat:               ClassValidation,
	ErrInvalidInactivityTimeout:         ClassValidation,
	ErrIncorrectSecurityAnswer:          ClassValidation,
	ErrNewPasswordCannotBeSameAsOld:     ClassValidation,
	ErrInvalidOrExpiredToken:            ClassValidation,
	ErrTitleRequired:                    ClassValidation,
	ErrTitleTooLong:                     ClassValidation,
	ErrPasswordRequired:                 ClassValidation,
	ErrPasswordTooLong:                  ClassValidation,
	ErrUsernameTooLong:                  ClassValidation,
	ErrInvalidURL:                       ClassValidation,
	ErrURLTooLong:                       ClassValidation,
	ErrNotesTooLong:                     ClassValidation,
	ErrExpirationDateMustBeFuture:       ClassValidation,

	ErrInvalidCredentials:    ClassAuthentication,
	ErrAccountLocked:         ClassAuthentication,
	ErrTwoFactorCodeRequired: ClassAuthentication,
	ErrInvalidTwoFactorCode:  ClassAuthentication,
	ErrInvalidSession:        ClassAuthentication,
	ErrSessionExpired:        ClassAuthentication,
	ErrAuthenticationNeeded:  ClassAuthentication,

	ErrUnauthorized: ClassForbidden,

	ErrPasswordNotFound: ClassNotFound,
	ErrUserNotFound:     ClassNotFound,
}

// Classify returns the class of err together with the domain sentinel it
// wraps. Errors outside the taxonomy are ClassInternal with a nil sentinel.
func Classify(err error) (ErrorClass, error) {
	if err == nil {
		return ClassInternal, nil
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if c, ok := errorClasses[e]; ok {
			return c, e
		}
	}
	return ClassInternal, nil
}
