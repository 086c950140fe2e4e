package helpers

import (
	"fmt"

	"github.com/oksasatya/go-ddd-ecommerce/pkg/mailer"
)

// EnsureRecipientAndEmail fills Email and RecipientEmail from job.To when the
// publisher left them out.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	for _, k := range []string{"Email", "RecipientEmail"} {
		if v, ok := job.Data[k]; !ok || fmt.Sprintf("%v", v) == "" {
			job.Data[k] = job.To
		}
	}
}
