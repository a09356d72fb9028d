package service

import (
	apperrors "github.com/noah-isme/certify-api/pkg/errors"
)

var (
	// ErrCourseNotFound indicates the course does not exist.
	ErrCourseNotFound = apperrors.Derive(apperrors.ErrNotFound, "COURSE_NOT_FOUND", "course not found")
	// ErrLessonNotFound indicates the lesson does not exist.
	ErrLessonNotFound = apperrors.Derive(apperrors.ErrNotFound, "LESSON_NOT_FOUND", "lesson not found")
	// ErrModuleNotFound indicates the module does not exist.
	ErrModuleNotFound = apperrors.Derive(apperrors.ErrNotFound, "MODULE_NOT_FOUND", "module not found")
	// ErrAssignmentNotFound indicates the assignment does not exist.
	ErrAssignmentNotFound = apperrors.Derive(apperrors.ErrNotFound, "ASSIGNMENT_NOT_FOUND", "assignment not found")
	// ErrSubmissionNotFound indicates the submission does not exist.
	ErrSubmissionNotFound = apperrors.Derive(apperrors.ErrNotFound, "SUBMISSION_NOT_FOUND", "submission not found")
	// ErrEnrollmentNotFound indicates the enrollment does not exist.
	ErrEnrollmentNotFound = apperrors.Derive(apperrors.ErrNotFound, "ENROLLMENT_NOT_FOUND", "enrollment not found")
	// ErrCertificateNotFound indicates the certificate does not exist.
	ErrCertificateNotFound = apperrors.Derive(apperrors.ErrNotFound, "CERTIFICATE_NOT_FOUND", "certificate not found")
	// ErrSubmissionNotStarted is returned when answers arrive for an attempt that was never started.
	ErrSubmissionNotStarted = apperrors.Derive(apperrors.ErrNotFound, "SUBMISSION_NOT_STARTED", "no started attempt for this assignment")
	// ErrUserNotFound indicates a referenced user does not exist.
	ErrUserNotFound = apperrors.Derive(apperrors.ErrNotFound, "USER_NOT_FOUND", "user not found")

	// ErrNotSubmissionOwner is returned when a student touches another student's work.
	ErrNotSubmissionOwner = apperrors.Derive(apperrors.ErrForbidden, "NOT_SUBMISSION_OWNER", "submission belongs to another student")
	// ErrNotAssignedVerifier is returned when the actor is not the verifier in charge.
	ErrNotAssignedVerifier = apperrors.Derive(apperrors.ErrForbidden, "NOT_ASSIGNED_VERIFIER", "actor is not the assigned verifier")
	// ErrNoVerifierAssigned is returned when an enrollment has no verifier to act for it.
	ErrNoVerifierAssigned = apperrors.Derive(apperrors.ErrForbidden, "NO_VERIFIER_ASSIGNED", "enrollment has no assigned verifier")
	// ErrNotEnrolled is returned when a student acts on a course they are not enrolled in.
	ErrNotEnrolled = apperrors.Derive(apperrors.ErrForbidden, "NOT_ENROLLED", "student is not enrolled in this course")
	// ErrCapabilityDenied is returned when the actor's role lacks a capability.
	ErrCapabilityDenied = apperrors.Derive(apperrors.ErrForbidden, "CAPABILITY_DENIED", "role does not allow this operation")

	// ErrEnrollmentNotCompleted blocks issuance for enrollments that have not completed.
	ErrEnrollmentNotCompleted = apperrors.Derive(apperrors.ErrInvalidState, "ENROLLMENT_NOT_COMPLETED", "enrollment is not completed")
	// ErrEnrollmentClosed blocks changes to completed or failed enrollments.
	ErrEnrollmentClosed = apperrors.Derive(apperrors.ErrInvalidState, "ENROLLMENT_CLOSED", "enrollment is no longer ongoing")
	// ErrCourseNotPublished blocks enrollment and submission on unpublished courses.
	ErrCourseNotPublished = apperrors.Derive(apperrors.ErrInvalidState, "COURSE_NOT_PUBLISHED", "course is not published")
	// ErrAlreadyEnrolled is returned on a second enrollment into the same course.
	ErrAlreadyEnrolled = apperrors.Derive(apperrors.ErrInvalidState, "ALREADY_ENROLLED", "student already enrolled in this course")
	// ErrAlreadySubmitted is returned when a submission was already handed in.
	ErrAlreadySubmitted = apperrors.Derive(apperrors.ErrInvalidState, "ALREADY_SUBMITTED", "submission already handed in")
	// ErrNotSubmitted is returned when evaluating work that was never handed in.
	ErrNotSubmitted = apperrors.Derive(apperrors.ErrInvalidState, "NOT_SUBMITTED", "submission has not been handed in")
	// ErrAssignmentTypeMismatch is returned when an evaluation targets the wrong assignment type.
	ErrAssignmentTypeMismatch = apperrors.Derive(apperrors.ErrInvalidState, "ASSIGNMENT_TYPE_MISMATCH", "assignment type does not match the evaluation")
	// ErrPracticalScoreRequired is returned when a practical course is certified without a practical score.
	ErrPracticalScoreRequired = apperrors.Derive(apperrors.ErrInvalidState, "PRACTICAL_SCORE_REQUIRED", "practical score is required for this course")
	// ErrCertificateAlreadyRevoked is returned on repeated revocation.
	ErrCertificateAlreadyRevoked = apperrors.Derive(apperrors.ErrInvalidState, "CERTIFICATE_ALREADY_REVOKED", "certificate already revoked")
	// ErrCertificateRevoked blocks downloads of revoked certificates.
	ErrCertificateRevoked = apperrors.Derive(apperrors.ErrInvalidState, "CERTIFICATE_REVOKED", "certificate has been revoked")
	// ErrCertificateNotRendered is returned when no download is available yet.
	ErrCertificateNotRendered = apperrors.Derive(apperrors.ErrNotFound, "CERTIFICATE_NOT_RENDERED", "certificate document is not available")
	// ErrCourseCodeTaken is returned when a course code already exists.
	ErrCourseCodeTaken = apperrors.Derive(apperrors.ErrInvalidState, "COURSE_CODE_TAKEN", "course code already in use")
	// ErrModuleHasAssignment is returned when a module already carries an assignment.
	ErrModuleHasAssignment = apperrors.Derive(apperrors.ErrInvalidState, "MODULE_HAS_ASSIGNMENT", "module already has an assignment")

	// ErrInvalidPracticalScore is returned for negative practical scores.
	ErrInvalidPracticalScore = apperrors.Derive(apperrors.ErrValidation, "INVALID_PRACTICAL_SCORE", "practical score must not be negative")
	// ErrScoreExceedsMax is returned when a manual score is above the assignment maximum.
	ErrScoreExceedsMax = apperrors.Derive(apperrors.ErrValidation, "SCORE_EXCEEDS_MAX", "score exceeds the assignment maximum")
	// ErrInvalidVerifier is returned when a verifier id does not name a verifier.
	ErrInvalidVerifier = apperrors.Derive(apperrors.ErrValidation, "INVALID_VERIFIER", "user is not a verifier")
	// ErrInvalidQuestion is returned for malformed question definitions.
	ErrInvalidQuestion = apperrors.Derive(apperrors.ErrValidation, "INVALID_QUESTION", "question definition is invalid")

	// ErrCertificateCollision is returned when generated identifiers collide twice in a row.
	ErrCertificateCollision = apperrors.Derive(apperrors.ErrCollision, "CERTIFICATE_COLLISION", "certificate identifiers collided, retry the request")
)

// ErrCertificateAccessDenied is returned when a student reads another student's certificate.
var ErrCertificateAccessDenied = apperrors.Derive(apperrors.ErrForbidden, "CERTIFICATE_ACCESS_DENIED", "certificate belongs to another student")

// ErrEnrollmentEmailMismatch is returned when the enrollment email differs from the account email.
var ErrEnrollmentEmailMismatch = apperrors.Derive(apperrors.ErrValidation, "ENROLLMENT_EMAIL_MISMATCH", "enrollment email must match your account email")

// ErrEnrollmentAccessDenied is returned when a student reads another student's enrollment.
var ErrEnrollmentAccessDenied = apperrors.Derive(apperrors.ErrForbidden, "ENROLLMENT_ACCESS_DENIED", "enrollment belongs to another student")

var (
	// ErrUploadMissing is returned when no file was attached.
	ErrUploadMissing = apperrors.Derive(apperrors.ErrValidation, "UPLOAD_MISSING", "file is required")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = apperrors.Derive(apperrors.ErrValidation, "UPLOAD_TOO_LARGE", "file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = apperrors.Derive(apperrors.ErrValidation, "UPLOAD_TYPE_NOT_ALLOWED", "file type not allowed")
	// ErrUploadScanFailed indicates the archive could not be inspected safely.
	ErrUploadScanFailed = apperrors.Derive(apperrors.ErrValidation, "UPLOAD_SCAN_FAILED", "file scanning failed")
)

var (
	// ErrDoubtNotFound indicates the doubt does not exist.
	ErrDoubtNotFound = apperrors.Derive(apperrors.ErrNotFound, "DOUBT_NOT_FOUND", "doubt not found")
	// ErrDoubtAccessDenied is returned when the actor is neither the asker nor a verifier of the course.
	ErrDoubtAccessDenied = apperrors.Derive(apperrors.ErrForbidden, "DOUBT_ACCESS_DENIED", "doubt belongs to another enrollment")
	// ErrDoubtClosed blocks answers on closed doubts.
	ErrDoubtClosed = apperrors.Derive(apperrors.ErrInvalidState, "DOUBT_CLOSED", "doubt is closed")
	// ErrDoubtEmpty is returned when a message has no text left after sanitizing.
	ErrDoubtEmpty = apperrors.Derive(apperrors.ErrValidation, "DOUBT_EMPTY", "message is empty after sanitizing")
	// ErrModuleNotInCourse is returned when a doubt names a module of another course.
	ErrModuleNotInCourse = apperrors.Derive(apperrors.ErrValidation, "MODULE_NOT_IN_COURSE", "module does not belong to this course")
)

var (
	// ErrVerifierRequestNotFound indicates the application does not exist.
	ErrVerifierRequestNotFound = apperrors.Derive(apperrors.ErrNotFound, "VERIFIER_REQUEST_NOT_FOUND", "verifier request not found")
	// ErrVerifierRequestExists is returned when the email already applied.
	ErrVerifierRequestExists = apperrors.Derive(apperrors.ErrInvalidState, "VERIFIER_REQUEST_EXISTS", "a request for this email already exists")
	// ErrVerifierRequestProcessed is returned when a request was already decided.
	ErrVerifierRequestProcessed = apperrors.Derive(apperrors.ErrInvalidState, "VERIFIER_REQUEST_PROCESSED", "verifier request already processed")
	// ErrVerifierEmailDomain is returned when the email is outside the allowed domains.
	ErrVerifierEmailDomain = apperrors.Derive(apperrors.ErrValidation, "VERIFIER_EMAIL_DOMAIN", "email domain is not accepted for verifiers")
	// ErrCannotDeactivateSelf is returned when an admin deactivates their own account.
	ErrCannotDeactivateSelf = apperrors.Derive(apperrors.ErrInvalidState, "CANNOT_DEACTIVATE_SELF", "admins cannot deactivate their own account")
	// ErrInvalidRole is returned for role names outside student, verifier and admin.
	ErrInvalidRole = apperrors.Derive(apperrors.ErrValidation, "INVALID_ROLE", "role is not recognised")
	// ErrUserInactive is returned when a deactivated account tries to enroll.
	ErrUserInactive = apperrors.Derive(apperrors.ErrForbidden, "USER_INACTIVE", "account is deactivated")
)
