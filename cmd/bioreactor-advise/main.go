// Command bioreactor-advise runs anomaly detection and feed recommendation over one batch and prints the records
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"bioreactor/internal/core/model"
	"bioreactor/internal/core/observation"
	"bioreactor/internal/core/synth"
	"bioreactor/internal/modkit"
	"bioreactor/internal/platform/config"
	"bioreactor/internal/platform/logger"
	"bioreactor/internal/platform/net/http/bind"
	"bioreactor/internal/platform/store"

	advdomain "bioreactor/internal/services/advisor/domain"
	advmod "bioreactor/internal/services/advisor/module"
	advsvc "bioreactor/internal/services/advisor/service"
	obsdomain "bioreactor/internal/services/observations/domain"
	obsmod "bioreactor/internal/services/observations/module"
)

func main() {
	var (
		fBatch  = flag.String("batch", "", "stored batch id to advise on (needs SERVICE_*_DBURL)")
		fIn     = flag.String("in", "", `JSON file with {"batch_id","rows":[...]}; "-" reads stdin`)
		fSynth  = flag.Bool("synth", false, "advise on one generated batch")
		fSeed   = flag.Uint64("seed", 42, "seed for -synth")
		fTable  = flag.Bool("table-model", false, "with -synth, predict from the generated feed rates instead of the configured model")
		fFormat = flag.String("format", "table", "output: table | json")
	)
	flag.Parse()

	l := logger.Named("advise")
	ctx := context.Background()
	root := config.New()

	cfg, err := advsvc.FromConfig(root)
	if err != nil {
		l.Panic().Err(err).Msg("engine config")
	}

	var out advdomain.RecommendationsResponse
	switch {
	case *fSynth:
		rows, err := synth.Generate(synth.Options{Batches: 1, RowsPerBatch: 50, Seed: *fSeed, HorizonHr: 120})
		if err != nil {
			l.Panic().Err(err).Msg("generate")
		}
		if *fTable {
			pts := make([]model.TablePoint, len(rows))
			for i, r := range rows {
				pts[i] = model.TablePoint{TimeHr: r.TimeHr, Feed: r.FeedRate}
			}
			if cfg.Table, err = model.NewTable(pts); err != nil {
				l.Panic().Err(err).Msg("table model")
			}
		}
		out, err = advise(ctx, advmod.NewWithConfig(modkit.Deps{Cfg: root}, cfg), inputOf(synth.Observations(rows)))
		if err != nil {
			l.Panic().Err(err).Msg("advise")
		}

	case *fIn != "":
		in, err := readInput(*fIn)
		if err != nil {
			l.Panic().Err(err).Msg("read input")
		}
		out, err = advise(ctx, advmod.NewWithConfig(modkit.Deps{Cfg: root}, cfg), in)
		if err != nil {
			l.Panic().Err(err).Msg("advise")
		}

	case *fBatch != "":
		st, err := store.Open(ctx, store.FromConfig(root, "advise"), store.WithLogger(*l))
		if err != nil {
			l.Panic().Err(err).Msg("store.Open failed")
		}
		defer func() { _ = st.Close(context.Background()) }()

		obs, err := obsmod.New(modkit.FromStore(root, st), obsmod.FromConfig(root))
		if err != nil {
			l.Panic().Err(err).Msg("observations module")
		}
		var reader obsdomain.ReaderPort = obs.Service()
		adv := advmod.NewWithConfig(modkit.FromStore(root, st), cfg, modkit.WithPorts(reader))
		if out, err = adv.Service().Recommendations(ctx, *fBatch); err != nil {
			l.Panic().Err(err).Msg("recommendations")
		}

	default:
		flag.Usage()
		os.Exit(2)
	}

	if err := render(os.Stdout, *fFormat, out); err != nil {
		l.Panic().Err(err).Msg("render")
	}
}

func advise(ctx context.Context, m *advmod.Module, in advdomain.AdviseInput) (advdomain.RecommendationsResponse, error) {
	return m.Service().Advise(ctx, in)
}

func inputOf(rows []observation.Observation) advdomain.AdviseInput {
	in := advdomain.AdviseInput{Rows: make([]advdomain.RowInput, len(rows))}
	if len(rows) > 0 {
		in.BatchID = rows[0].BatchID
	}
	for i, o := range rows {
		in.Rows[i] = advdomain.RowInput{
			TimeHr: o.TimeHr, VCD: o.VCD, Glucose: o.Glucose, Lactate: o.Lactate, PH: o.PH,
			DO: o.DO, Temperature: o.Temperature, Agitation: o.Agitation, Airflow: o.Airflow,
		}
	}
	return in
}

func readInput(path string) (advdomain.AdviseInput, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return advdomain.AdviseInput{}, err
		}
		defer f.Close()
		r = f
	}
	var in advdomain.AdviseInput
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, err
	}
	advdomain.RegisterValidators()
	return in, bind.Validate(in)
}

func render(w io.Writer, format string, out advdomain.RecommendationsResponse) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "batch %s (%s)\n", out.BatchID, out.Predictor)
	fmt.Fprintln(tw, "time_hr\tfeed_ml_per_hr\trecommendation\tanomaly")
	for _, r := range out.Records {
		fmt.Fprintf(tw, "%.2f\t%.2f\t%s\t%s\n", r.TimeHr, r.PredictedFeed, r.FeedRecommendation, r.AnomalyExplanation)
	}
	return tw.Flush()
}
