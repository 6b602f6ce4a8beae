package source

import (
	"context"

	"github.com/okian/radar/pkg/option"
)

// Static reports no data for every query. It stands in for upstreams that
// are not configured.
type Static struct{}

// CampaignMetrics implements CampaignAdapter.
func (Static) CampaignMetrics(context.Context, string) (option.Option[CampaignMetrics], error) {
	return option.None[CampaignMetrics](), nil
}

// GraphMetrics implements GraphAdapter.
func (Static) GraphMetrics(context.Context, string) (option.Option[GraphMetrics], error) {
	return option.None[GraphMetrics](), nil
}

// CoverageMetrics implements CoverageAdapter.
func (Static) CoverageMetrics(context.Context, string) (option.Option[CoverageMetrics], error) {
	return option.None[CoverageMetrics](), nil
}

// CreativeMetrics implements CreativeAdapter.
func (Static) CreativeMetrics(context.Context, string) (option.Option[CreativeMetrics], error) {
	return option.None[CreativeMetrics](), nil
}

// AudienceMetrics implements AudienceAdapter.
func (Static) AudienceMetrics(context.Context, string) (option.Option[AudienceMetrics], error) {
	return option.None[AudienceMetrics](), nil
}

// SceneHotness implements SceneAdapter.
func (Static) SceneHotness(context.Context, string) (option.Option[float64], error) {
	return option.None[float64](), nil
}

// Facts implements FactSource.
func (Static) Facts(context.Context, string) ([]Fact, error) {
	return nil, nil
}
