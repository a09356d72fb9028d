package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	certificatesIssued     prometheus.Counter
	certificateFailures    *prometheus.CounterVec
	certificatesRevoked    prometheus.Counter
	verificationsTotal     *prometheus.CounterVec
	submissionsEvaluated   *prometheus.CounterVec
	uploadRejectedTotal    *prometheus.CounterVec
	resultsGenerationTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		certificatesIssued = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Certificates created.",
		})

		certificateFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certificate_issue_failures_total",
			Help: "Certificate issuance attempts that failed, by reason.",
		}, []string{"reason"})

		certificatesRevoked = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "certificates_revoked_total",
			Help: "Certificates revoked.",
		})

		verificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certificate_verifications_total",
			Help: "Public certificate verifications, by outcome.",
		}, []string{"result"})

		submissionsEvaluated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_evaluated_total",
			Help: "Submissions evaluated, by resulting status.",
		}, []string{"status"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_rejected_total",
			Help: "Artifact uploads rejected, by reason.",
		}, []string{"reason"})

		resultsGenerationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "course_results_enrollments_total",
			Help: "Enrollments processed by course results generation, by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			certificatesIssued,
			certificateFailures,
			certificatesRevoked,
			verificationsTotal,
			submissionsEvaluated,
			uploadRejectedTotal,
			resultsGenerationTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// CertificatesIssued counts created certificates.
func CertificatesIssued() prometheus.Counter {
	RegisterMetrics()
	return certificatesIssued
}

// CertificateFailures counts failed issuance attempts.
func CertificateFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return certificateFailures
}

// CertificatesRevoked counts revocations.
func CertificatesRevoked() prometheus.Counter {
	RegisterMetrics()
	return certificatesRevoked
}

// Verifications counts public verification lookups.
func Verifications() *prometheus.CounterVec {
	RegisterMetrics()
	return verificationsTotal
}

// SubmissionsEvaluated counts graded submissions.
func SubmissionsEvaluated() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsEvaluated
}

// UploadRejected counts rejected artifact uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// ResultsGeneration counts enrollments processed by bulk results generation.
func ResultsGeneration() *prometheus.CounterVec {
	RegisterMetrics()
	return resultsGenerationTotal
}
