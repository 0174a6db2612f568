package usecase

import (
	"context"
	"encoding/json"
	"time"

	"EnergyForecast/internal/domain/models"
	domrepo "EnergyForecast/internal/domain/repository"
	domsvc "EnergyForecast/internal/domain/service"
	"EnergyForecast/internal/services/billing"
	"EnergyForecast/internal/services/features"
	"EnergyForecast/internal/services/forecast"
	"EnergyForecast/pkg/cache"
	"EnergyForecast/pkg/logger"
	"EnergyForecast/pkg/otel"
	"EnergyForecast/pkg/util"
)

// ForecastRequest is an ad-hoc forecast over caller-supplied history.
type ForecastRequest struct {
	MeterID        string
	PredictionType string
	History        []features.RawReading
}

// ForecastUseCase runs parse -> features -> forecast -> anomaly -> confidence.
type ForecastUseCase struct {
	forecaster *forecast.Forecaster
	anomaly    domsvc.AnomalyDetector
	cache      domrepo.ForecastCache
	publisher  domrepo.ForecastPublisher
	metrics    domrepo.Metrics
	log        *logger.Logger
	timeout    time.Duration
	now        func() time.Time
}

// ForecastOption configures ForecastUseCase.
type ForecastOption func(*ForecastUseCase)

func WithCache(c domrepo.ForecastCache) ForecastOption {
	return func(u *ForecastUseCase) { u.cache = c }
}

func WithPublisher(p domrepo.ForecastPublisher) ForecastOption {
	return func(u *ForecastUseCase) { u.publisher = p }
}

func WithMetrics(m domrepo.Metrics) ForecastOption {
	return func(u *ForecastUseCase) { u.metrics = m }
}

func WithLogger(l *logger.Logger) ForecastOption {
	return func(u *ForecastUseCase) { u.log = l }
}

// WithTimeout bounds one forecast, including every predictor call.
func WithTimeout(d time.Duration) ForecastOption {
	return func(u *ForecastUseCase) { u.timeout = d }
}

func withClock(now func() time.Time) ForecastOption {
	return func(u *ForecastUseCase) { u.now = now }
}

func NewForecastUseCase(f *forecast.Forecaster, anomaly domsvc.AnomalyDetector, opts ...ForecastOption) *ForecastUseCase {
	u := &ForecastUseCase{
		forecaster: f,
		anomaly:    anomaly,
		log:        logger.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Predict validates raw input and forecasts it.
func (u *ForecastUseCase) Predict(ctx context.Context, req ForecastRequest) (*models.ForecastResult, error) {
	pt, err := models.ParsePredictionType(req.PredictionType)
	if err != nil {
		u.recordFailure(req.PredictionType, err)
		return nil, err
	}
	records, err := features.ParseHistory(req.History)
	if err != nil {
		u.recordFailure(string(pt), err)
		return nil, err
	}
	return u.ForecastRecords(ctx, req.MeterID, pt, records)
}

// ForecastRecords forecasts already parsed, date-sorted records.
func (u *ForecastUseCase) ForecastRecords(ctx context.Context, meterID string, pt models.PredictionType, records []models.DailyRecord) (res *models.ForecastResult, err error) {
	start := time.Now()
	ctx, span := otel.StartSpan(ctx, "forecast",
		otel.AttrMeterID.String(meterID),
		otel.AttrPredictionType.String(string(pt)),
		otel.AttrHorizon.Int(pt.Horizon()),
		otel.AttrDataDays.Int(len(records)))
	defer func() {
		if err != nil {
			otel.RecordError(span, err)
			u.recordFailure(string(pt), err)
		} else if u.metrics != nil {
			u.metrics.RecordForecast(string(pt), "ok", time.Since(start).Seconds())
		}
		span.End()
	}()

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	key := requestKey(meterID, pt, records)
	if cached, ok := u.fromCache(ctx, key); ok {
		span.SetAttributes(otel.AttrCacheHit.Bool(true))
		return cached, nil
	}

	anchor, err := features.Latest(records)
	if err != nil {
		return nil, models.NewInputParseError("invalid history", err)
	}

	hf, err := u.forecaster.Forecast(ctx, anchor, pt.Horizon())
	if err != nil {
		return nil, err
	}

	label, err := u.anomaly.Label(ctx, anchor.TotalUnits)
	if err != nil {
		return nil, models.NewPredictorFailure(err)
	}
	anomalous := label == domsvc.AnomalySentinel
	if anomalous && u.metrics != nil {
		u.metrics.RecordAnomaly()
	}

	conf, warning := forecast.Classify(len(records))
	res = &models.ForecastResult{
		MeterID:              meterID,
		PredictionType:       pt,
		NextDayUnits:         billing.Round2(hf.NextDayUnits),
		Predicted2MonthBill:  hf.Predicted2MonthBill,
		PredictedMonthlyBill: hf.PredictedMonthlyBill,
		AnomalyDetected:      anomalous,
		Confidence:           conf,
		DataDays:             len(records),
		Warning:              warning,
		Forecast:             hf,
		CreatedAt:            u.now().UTC(),
	}

	u.toCache(ctx, key, res)
	u.publish(ctx, key, res)
	return res, nil
}

func (u *ForecastUseCase) recordFailure(pt string, err error) {
	if u.metrics == nil {
		return
	}
	fe := models.AsForecastError(err)
	u.metrics.RecordForecast(pt, string(fe.Kind), 0)
	u.metrics.RecordError(string(fe.Kind))
}

func (u *ForecastUseCase) fromCache(ctx context.Context, key string) (*models.ForecastResult, bool) {
	if u.cache == nil {
		return nil, false
	}
	data, ok := u.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var res models.ForecastResult
	if err := json.Unmarshal(data, &res); err != nil {
		u.log.Warn("discarding undecodable cache entry", logger.String("key", key), logger.Error(err))
		return nil, false
	}
	return &res, true
}

func (u *ForecastUseCase) toCache(ctx context.Context, key string, res *models.ForecastResult) {
	if u.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		u.log.Warn("encode forecast for cache", logger.Error(err))
		return
	}
	u.cache.Set(ctx, key, data)
}

func (u *ForecastUseCase) publish(ctx context.Context, key string, res *models.ForecastResult) {
	if u.publisher == nil {
		return
	}
	ev := &models.ForecastEvent{
		MeterID:             res.MeterID,
		RequestKey:          key,
		PredictionType:      string(res.PredictionType),
		NextDayUnits:        res.NextDayUnits,
		Predicted2MonthBill: res.Predicted2MonthBill,
		AnomalyDetected:     res.AnomalyDetected,
		Confidence:          string(res.Confidence),
		DataDays:            res.DataDays,
		CreatedAt:           res.CreatedAt,
	}
	if err := u.publisher.PublishForecast(context.WithoutCancel(ctx), ev); err != nil {
		u.log.Error("publish forecast event",
			logger.String("request_key", key),
			logger.String("meter_id", res.MeterID),
			logger.Error(err))
	}
}

// requestKey identifies a forecast by meter, type and the exact history it used.
func requestKey(meterID string, pt models.PredictionType, records []models.DailyRecord) string {
	type row struct {
		D string  `json:"d"`
		U float64 `json:"u"`
	}
	rows := make([]row, len(records))
	for i, r := range records {
		rows[i] = row{D: util.FormatDate(r.Date), U: r.TotalUnits}
	}
	data, _ := json.Marshal(struct {
		M string `json:"m"`
		P string `json:"p"`
		R []row  `json:"r"`
	}{meterID, string(pt), rows})
	return cache.GenerateKey("forecast", string(pt), cache.HashKey(data))
}
