package models

import "strings"

// Role is the closed set of identities a caller can act as.
type Role string

const (
	RoleStudent  Role = "student"
	RoleVerifier Role = "verifier"
	RoleAdmin    Role = "admin"
)

// Capability names an action guarded by role.
type Capability string

const (
	CapEnroll              Capability = "enroll"
	CapSubmitAssignments   Capability = "submit_assignments"
	CapEvaluateSubmissions Capability = "evaluate_submissions"
	CapIssueCertificates   Capability = "issue_certificates"
	CapRevokeCertificates  Capability = "revoke_certificates"
	CapManageCourses       Capability = "manage_courses"
	CapGenerateResults     Capability = "generate_results"
	CapViewCertificates    Capability = "view_certificates"
	CapUploadArtifacts     Capability = "upload_artifacts"
	CapAskDoubts           Capability = "ask_doubts"
	CapAnswerDoubts        Capability = "answer_doubts"
	CapManageUsers         Capability = "manage_users"
	CapViewAnalytics       Capability = "view_analytics"
)

var roleCapabilities = map[Role][]Capability{
	RoleStudent: {
		CapEnroll,
		CapSubmitAssignments,
		CapViewCertificates,
		CapUploadArtifacts,
		CapAskDoubts,
	},
	RoleVerifier: {
		CapEvaluateSubmissions,
		CapIssueCertificates,
		CapViewCertificates,
		CapAnswerDoubts,
	},
	RoleAdmin: {
		CapEvaluateSubmissions,
		CapIssueCertificates,
		CapRevokeCertificates,
		CapManageCourses,
		CapGenerateResults,
		CapViewCertificates,
		CapAnswerDoubts,
		CapManageUsers,
		CapViewAnalytics,
	},
}

// ParseRole normalises a raw claim value into a known role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := roleCapabilities[role]; !ok {
		return "", false
	}
	return role, true
}

// Can reports whether the role grants the capability.
func (r Role) Can(capability Capability) bool {
	for _, c := range roleCapabilities[r] {
		if c == capability {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}
