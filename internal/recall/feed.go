package recall

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/vitamend/go-donation-inventory/internal/inventory"
)

// Advisory is one safety notice from the external feed, reduced to what
// the sweep needs.
type Advisory struct {
	ID           string `json:"id"`
	MedicineName string `json:"medicine_name"`
	Reason       string `json:"reason"`
}

// FeedClient reads the drug-enforcement feed. The feed is a best-effort
// collaborator: any failure comes back as ExternalDependencyError and
// must never abort inventory work already committed.
type FeedClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewFeedClient(baseURL string) *FeedClient {
	return &FeedClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type feedResult struct {
	RecallNumber       string `json:"recall_number"`
	ProductDescription string `json:"product_description"`
	ReasonForRecall    string `json:"reason_for_recall"`
}

type feedResponse struct {
	Results []feedResult `json:"results"`
}

// FetchRecentAdvisories returns advisories initiated since the given
// date, one per extracted medicine name.
func (c *FeedClient) FetchRecentAdvisories(ctx context.Context, since time.Time) ([]Advisory, error) {
	q := url.Values{}
	q.Set("search", fmt.Sprintf("recall_initiation_date:[%s+TO+*]", since.Format("20060102")))
	q.Set("limit", "100")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &inventory.ExternalDependencyError{Dependency: "advisory feed", Err: err}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &inventory.ExternalDependencyError{Dependency: "advisory feed", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &inventory.ExternalDependencyError{
			Dependency: "advisory feed",
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var body feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &inventory.ExternalDependencyError{Dependency: "advisory feed", Err: err}
	}

	var out []Advisory
	for _, r := range body.Results {
		for _, name := range ExtractMedicineNames(r.ProductDescription) {
			out = append(out, Advisory{
				ID:           r.RecallNumber + ":" + name,
				MedicineName: name,
				Reason:       r.ReasonForRecall,
			})
		}
	}
	return out, nil
}

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:[Tt]ablets?|[Cc]apsules?|[Ii]njection|[Ss]yrup)`),
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+\d+\s*mg`),
}

// ExtractMedicineNames pulls likely medicine names out of a feed product
// description.
func ExtractMedicineNames(productDescription string) []string {
	seen := map[string]bool{}
	var names []string
	for _, p := range namePatterns {
		for _, m := range p.FindAllStringSubmatch(productDescription, -1) {
			if name := m[1]; !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
