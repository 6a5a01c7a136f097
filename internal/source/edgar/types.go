package edgar

// submissionsPayload is the shape of /submissions/CIK##########.json. The
// listing is parallel arrays under filings.recent; rows are aligned by index
// but individual arrays can be short when EDGAR omits optional columns.
type submissionsPayload struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

type recentFilings struct {
	AccessionNumber       []string `json:"accessionNumber"`
	Form                  []string `json:"form"`
	FilingDate            []string `json:"filingDate"`
	PrimaryDocument       []string `json:"primaryDocument"`
	PrimaryDocDescription []string `json:"primaryDocDescription"`
}

// at is an index lookup that treats a short parallel array as empty cells
// rather than a reason to abort the batch.
func (recentFilings) at(col []string, i int) string {
	if i < 0 || i >= len(col) {
		return ""
	}
	return col[i]
}
