package core

// ManualPayer selects the built-in sample records instead of a file.
const ManualPayer = "manual"

// ManualRecords returns the built-in two-row sample used for smoke runs.
func ManualRecords() LiteralRecords {
	return LiteralRecords{
		{
			ColMemberID:    1,
			ColClaimID:     101,
			ColClaimAmount: 500,
			ColServiceDate: "2025-01-01",
			ColPayerName:   ManualPayer,
		},
		{
			ColMemberID:    2,
			ColClaimID:     102,
			ColClaimAmount: 1500,
			ColServiceDate: "2025-01-02",
			ColPayerName:   ManualPayer,
		},
	}
}
