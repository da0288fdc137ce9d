package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codyseavey/pokemarket/internal/analytics"
	"github.com/codyseavey/pokemarket/internal/client"
	"github.com/codyseavey/pokemarket/internal/models"
	"github.com/codyseavey/pokemarket/internal/views"
)

const chartWidth = 30

type chartOutput struct {
	Condition string    `json:"condition"`
	Labels    []string  `json:"labels"`
	Values    []float64 `json:"values"`
	YMin      float64   `json:"y_min"`
	YMax      float64   `json:"y_max"`
}

type analyticsOutput struct {
	Card          *models.Card          `json:"card"`
	PriceHistory  *models.PriceHistory  `json:"price_history,omitempty"`
	AIInsights    *models.AIInsights    `json:"ai_insights,omitempty"`
	TrendAnalysis *models.TrendAnalysis `json:"trend_analysis,omitempty"`
	Chart         *chartOutput          `json:"chart,omitempty"`
	Errors        []string              `json:"errors,omitempty"`
}

func newAnalyticsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics [card-id]",
		Short: "Show price trend and AI insights for a card",
		Long:  "Show price trend and AI insights for a card. Without a card id the first card of the portfolio is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := ctx.collectionClient()
			if err != nil {
				return err
			}
			view := views.NewAnalyticsView(cc, nil)
			defer view.Close()

			if err := view.LoadCards(cmd.Context()); err != nil {
				return fmt.Errorf("load cards: %s", client.UserMessage(err))
			}
			cards := view.State().Cards.Data
			if len(cards) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cards in your portfolio yet.")
				return nil
			}

			id := cards[0].ID
			if len(args) == 1 {
				if id, err = parseCardID(args[0]); err != nil {
					return err
				}
				if !containsCard(cards, id) {
					return fmt.Errorf("card %d is not in the portfolio", id)
				}
			}

			// Fetch failures are isolated and shown inline.
			_ = view.Select(cmd.Context(), id)
			st := view.State()

			if f := ctx.outputFormat(); f != outputTable {
				return writeStructured(cmd, f, buildAnalyticsOutput(st))
			}
			renderAnalytics(cmd.OutOrStdout(), st, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
}

func containsCard(cards []models.Card, id uint) bool {
	for _, c := range cards {
		if c.ID == id {
			return true
		}
	}
	return false
}

func buildAnalyticsOutput(st views.AnalyticsState) analyticsOutput {
	out := analyticsOutput{Card: st.Selected, TrendAnalysis: st.Trend()}
	if st.History.IsReady() {
		out.PriceHistory = st.History.Data
	} else if st.History.Err != nil {
		out.Errors = append(out.Errors, "price history: "+client.UserMessage(st.History.Err))
	}
	if st.Insights.IsReady() {
		out.AIInsights = st.Insights.Data
	} else if st.Insights.Err != nil {
		out.Errors = append(out.Errors, "ai insights: "+client.UserMessage(st.Insights.Err))
	}
	if chart, ok := st.Chart(); ok {
		out.Chart = &chartOutput{
			Condition: chart.Condition,
			Labels:    chart.Labels,
			Values:    chart.Values,
			YMin:      chart.YMin,
			YMax:      chart.YMax,
		}
	}
	return out
}

func renderAnalytics(w io.Writer, st views.AnalyticsState, colorize bool) {
	card := st.Selected
	if card == nil {
		fmt.Fprintln(w, "No card selected.")
		return
	}

	fmt.Fprintln(w, bold(card.CardName, colorize))
	pairs := [][2]string{
		{"Set", card.SetName},
		{"Market price", analytics.FormatPrice(card.MarketPrice)},
	}
	if card.LowPrice != nil && card.HighPrice != nil {
		pairs = append(pairs, [2]string{"Range", analytics.FormatPrice(card.LowPrice) + " - " + analytics.FormatPrice(card.HighPrice)})
	}
	fmt.Fprintln(w, renderKeyValues(pairs))
	fmt.Fprintln(w)

	renderTrend(w, st, colorize)
	renderChart(w, st)
	renderInsights(w, st, colorize)
}

func renderTrend(w io.Writer, st views.AnalyticsState, colorize bool) {
	fmt.Fprintln(w, bold("Price trend", colorize))
	if st.History.Err != nil {
		fmt.Fprintln(w, "  "+client.UserMessage(st.History.Err))
	}
	trend := st.Trend()
	if trend == nil {
		msg := "Not enough price data yet."
		if st.History.IsReady() && st.History.Data.Message != "" {
			msg = st.History.Data.Message
		}
		fmt.Fprintln(w, "  "+msg)
		fmt.Fprintln(w)
		return
	}

	ind := analytics.TrendIndicator(trend.Trend)
	change := analytics.ChangeIndicator(trend.WeekChangePercent)
	avg, lo, hi := trend.AveragePrice, trend.LowestPrice, trend.HighestPrice
	fmt.Fprintln(w, renderKeyValues([][2]string{
		{"Trend", paint(ind.Emoji()+" "+trend.Trend, ind, colorize)},
		{"7-day change", paint(analytics.FormatChange(trend.WeekChangePercent), change, colorize)},
		{"Average", analytics.FormatPrice(&avg)},
		{"Lowest", analytics.FormatPrice(&lo)},
		{"Highest", analytics.FormatPrice(&hi)},
		{"Data", strconv.Itoa(trend.TotalDataPoints) + " days of data"},
	}))
	fmt.Fprintln(w)
}

func renderChart(w io.Writer, st views.AnalyticsState) {
	chart, ok := st.Chart()
	if !ok {
		return
	}
	rows := make([][]string, chart.Len())
	span := chart.YMax - chart.YMin
	for i, v := range chart.Values {
		n := 0
		if span > 0 {
			n = int((v - chart.YMin) / span * chartWidth)
		}
		rows[i] = []string{chart.Labels[i], fmt.Sprintf("$%.2f", v), strings.Repeat("█", n)}
	}
	fmt.Fprintf(w, "%s price history (axis $%.2f - $%.2f)\n", chart.Condition, chart.YMin, chart.YMax)
	fmt.Fprintln(w, renderTable([]string{"Date", "Market", ""}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
	fmt.Fprintln(w)
}

func renderInsights(w io.Writer, st views.AnalyticsState, colorize bool) {
	fmt.Fprintln(w, bold("AI insights", colorize))
	switch {
	case st.Insights.Err != nil:
		fmt.Fprintln(w, "  "+client.UserMessage(st.Insights.Err))
	case !st.Insights.IsReady() || !st.Insights.Data.Available():
		msg := "AI insights are not yet available for this card."
		if st.Insights.IsReady() && st.Insights.Data.Message != "" {
			msg = st.Insights.Data.Message
		}
		fmt.Fprintln(w, "  "+msg)
	default:
		in := st.Insights.Data.Insights
		ind := analytics.RecommendationIndicator(string(in.Recommendation))
		fmt.Fprintln(w, renderKeyValues([][2]string{
			{"Recommendation", paint(ind.Emoji()+" "+string(in.Recommendation), ind, colorize)},
			{"Confidence", strconv.Itoa(in.Confidence) + "%"},
			{"Prediction", in.Prediction},
			{"Reasoning", in.Reasoning},
		}))
	}
}
