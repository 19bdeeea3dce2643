package scheduler

import (
	"fmt"

	"ledger-audit/internal/analysis"
	"ledger-audit/internal/models"
)

// CreateBatches splits one account's monthly figures into analysis tasks
// sized by the account family and data volume. VAT accounts always run at
// high priority, and so does any chunk filling more than 80% of the target
// batch size.
func CreateBatches(account models.AccountCode, class models.Classification, figures models.MonthlyFigures, taskType string) []*models.BatchTask {
	months := figures.Months()
	if len(months) == 0 {
		return nil
	}

	sizing := analysis.OptimalBatchSizing(class, len(months))
	var tasks []*models.BatchTask

	for start := 0; start < len(months); start += sizing.BatchSize {
		end := start + sizing.BatchSize
		if end > len(months) {
			end = len(months)
		}
		chunk := make(models.MonthlyFigures, end-start)
		for _, month := range months[start:end] {
			chunk[month] = figures[month]
		}

		priority := models.PriorityNormal
		if class == models.ClassVAT {
			priority = models.PriorityHigh
		} else if len(chunk)*5 > sizing.BatchSize*4 {
			priority = models.PriorityHigh
		}

		tasks = append(tasks, &models.BatchTask{
			ID:             fmt.Sprintf("%s-%s-%03d", taskType, account, len(tasks)+1),
			Type:           taskType,
			AccountCode:    account,
			Classification: class,
			Payload:        map[string]any{"figures": chunk},
			Priority:       priority,
			Status:         models.StatusPending,
		})
	}
	return tasks
}
