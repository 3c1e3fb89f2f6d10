package unanet

// ScheduleRow combines a project with one of its fixed price items into the flat shape of the
// fixed price schedule sheet.
func ScheduleRow(projectID int, project, item Record) Record {
	return Record{
		"project_id":                 projectID,
		"code":                       project["code"],
		"billing_currency":           code(project, "billingCurrency"),
		"project_org":                code(project, "projectOrg"),
		"project_currency":           code(project, "projectCurrency"),
		"owning_org":                 code(project, "owningOrg"),
		"item_key":                   item["key"],
		"task_key":                   item["taskKey"],
		"post_history_key":           item["postHistoryKey"],
		"billable_post_history_key":  item["billablePostHistoryKey"],
		"description":                item["description"],
		"bill_date":                  item["billDate"],
		"bill_on_completion":         item["billOnCompletion"],
		"amount":                     item["amount"],
		"revenue_recognition_method": item["revenueRecognitionMethod"],
		"schedule":                   item["schedule"],
	}
}

// ScheduleColumns is the column order of the fixed price schedule sheet.
var ScheduleColumns = []string{
	"project_id", "code", "billing_currency", "project_org", "project_currency", "owning_org",
	"item_key", "task_key", "post_history_key", "billable_post_history_key", "description",
	"bill_date", "bill_on_completion", "amount", "revenue_recognition_method", "schedule",
}

func code(rec Record, field string) any {
	nested, ok := rec[field].(map[string]any)
	if !ok {
		return nil
	}
	return nested["code"]
}
