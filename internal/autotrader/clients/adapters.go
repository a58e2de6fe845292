package clients

import "time"

// IndustryLookupAdapter adapts an IndustryClient to riskgate.IndustryLookup,
// which names the single method Industry rather than GetIndustry.
type IndustryLookupAdapter struct {
	client IndustryClient
}

func NewIndustryLookupAdapter(client IndustryClient) *IndustryLookupAdapter {
	return &IndustryLookupAdapter{client: client}
}

func (a *IndustryLookupAdapter) Industry(ticker string) (string, error) {
	return a.client.GetIndustry(ticker)
}

// EarningsCalendarAdapter adapts an EarningsClient to riskgate.EarningsCalendar,
// picking the earliest event in [from, to) out of the client's event list.
type EarningsCalendarAdapter struct {
	client EarningsClient
}

func NewEarningsCalendarAdapter(client EarningsClient) *EarningsCalendarAdapter {
	return &EarningsCalendarAdapter{client: client}
}

func (a *EarningsCalendarAdapter) NextEarningsDate(ticker string, from, to time.Time) (*time.Time, error) {
	events, err := a.client.GetEarnings(ticker, from, to)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	next := events[0].Date
	for _, e := range events[1:] {
		if e.Date.Before(next) {
			next = e.Date
		}
	}
	return &next, nil
}
