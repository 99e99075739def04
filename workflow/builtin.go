package workflow

// DefaultDefinition returns the built-in security report workflow: push
// and pull_request on main, a daily schedule at midnight UTC, and a
// single job publishing the nine report files as the security-reports
// artifact.
func DefaultDefinition() *Definition {
	return &Definition{
		Name: "GitHub security report",
		On: Triggers{
			Push:        &BranchFilter{Branches: []string{"main"}},
			PullRequest: &BranchFilter{Branches: []string{"main"}},
			Schedule:    []Schedule{{Cron: "0 0 * * *"}},
		},
		Jobs: map[string]Job{
			"run-security-report": {
				Artifact: Artifact{
					Name: "security-reports",
					Paths: []string{
						"enterprise_secret_scanning.csv",
						"enterprise_code_scanning.csv",
						"enterprise_dependabot.csv",
						"organization_code_scanning.csv",
						"organization_dependabot.csv",
						"organization_secret_scanning.csv",
						"repository_code_scanning.csv",
						"repository_dependabot.csv",
						"repository_secret_scanning.csv",
					},
				},
			},
		},
	}
}
