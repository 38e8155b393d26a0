package health

import (
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/nzb155/nomulus/internal/app/migration/usecases/init_sql"
)

// outcomeStatus translates a kind outcome into a serving status. Only a kind
// that migrated completely is SERVING.
func outcomeStatus(o init_sql.KindOutcome) healthpb.HealthCheckResponse_ServingStatus {
	if o.Succeeded() {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// overallStatus is SERVING only when every kind of the run succeeded.
func overallStatus(r init_sql.Report) healthpb.HealthCheckResponse_ServingStatus {
	if r.Succeeded() {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
