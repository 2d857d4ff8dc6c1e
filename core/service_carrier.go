package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// carrierEnvelope keeps content raw: the registry answers an unknown carrier
// with null or an empty list instead of an object.
type carrierEnvelope struct {
	Content json.RawMessage `json:"content"`
}

type carrierContent struct {
	Carrier *carrierRecord `json:"carrier"`
}

type carrierRecord struct {
	LegalName        *string `json:"legalName"`
	DBAName          *string `json:"dbaName"`
	StatusCode       string  `json:"statusCode"`
	AllowedToOperate any     `json:"allowedToOperate"`
	PhyCity          *string `json:"phyCity"`
	PhyState         *string `json:"phyState"`
}

// CheckCarrier looks a carrier up by MC number. A carrier is eligible when it
// is active and allowed to operate. A registry answer without a carrier is
// not an error: it reads as an ineligible record with an empty status.
func (s *Service) CheckCarrier(ctx context.Context, mc string) (eligibility CarrierEligibility, err error) {
	startedAt := time.Now().UTC()
	mc = strings.TrimSpace(mc)
	defer func() {
		s.observeOperation(ctx, startedAt, "check_carrier", err, map[string]any{
			"mc":       mc,
			"eligible": eligibility.Eligible,
		})
	}()
	if mc == "" {
		return CarrierEligibility{}, badInputError("core: mc_key is required", map[string]any{"field": "mc_key"})
	}
	baseURL := strings.TrimRight(strings.TrimSpace(s.config.Carrier.BaseURL), "/")
	apiKey := strings.TrimSpace(s.config.Carrier.APIKey)
	if baseURL == "" || apiKey == "" {
		return CarrierEligibility{}, notConfiguredError("core: carrier registry is not configured", nil)
	}

	endpoint := baseURL + "/carriers/" + url.PathEscape(mc) + "?webKey=" + url.QueryEscape(apiKey)
	delivery := s.relay.Deliver(ctx, DeliveryRequest{
		URL:     endpoint,
		Method:  http.MethodGet,
		Headers: map[string]string{"Accept": "application/json"},
		Timeout: s.config.Workflow.Timeout,
	})
	if !delivery.Delivered {
		return CarrierEligibility{}, externalError(delivery.Err, "core: carrier registry lookup failed", map[string]any{
			"mc":          mc,
			"status_code": delivery.StatusCode,
		})
	}

	var envelope carrierEnvelope
	if err := json.Unmarshal(delivery.Body, &envelope); err != nil {
		return CarrierEligibility{}, externalError(err, "core: carrier registry returned invalid json", map[string]any{"mc": mc})
	}
	var content carrierContent
	if err := json.Unmarshal(envelope.Content, &content); err != nil || content.Carrier == nil {
		return CarrierEligibility{MC: mc}, nil
	}
	record := content.Carrier
	status := strings.ToUpper(strings.TrimSpace(record.StatusCode))
	allowed := strings.EqualFold(strings.TrimSpace(StringValue(record.AllowedToOperate)), "Y")
	return CarrierEligibility{
		MC:        mc,
		LegalName: record.LegalName,
		DBAName:   record.DBAName,
		Status:    status,
		Eligible:  status == "A" && allowed,
		City:      record.PhyCity,
		State:     record.PhyState,
	}, nil
}
