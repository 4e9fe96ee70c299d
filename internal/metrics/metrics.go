// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prestamista_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prestamista_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	PagosRegistrados = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prestamista_pagos_registrados_total",
		Help: "Loan payments applied, by payment type.",
	}, []string{"tipo"})

	MontoCobrado = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prestamista_monto_cobrado_total",
		Help: "Sum of applied payment amounts.",
	})

	PrestamosCreados = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prestamista_prestamos_creados_total",
		Help: "Loans created, by origin (nuevo | refinanciacion).",
	}, []string{"origen"})

	CierresCaja = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prestamista_cierres_caja_total",
		Help: "Register day closes, by register (central | empleado) and mode (manual | auto).",
	}, []string{"caja", "modo"})

	DiferenciaCierre = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "prestamista_cierre_diferencia",
		Help:    "Confirmed minus expected balance on manual central closes.",
		Buckets: []float64{-1000, -100, -10, -1, 0, 1, 10, 100, 1000},
	})

	EspejosFallidos = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prestamista_deposito_espejo_fallidos_total",
		Help: "Employee deposits whose central mirror write failed and was queued.",
	})

	JobsProcesados = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prestamista_jobs_procesados_total",
		Help: "Background jobs by type and result (ok | retry | dlq).",
	}, []string{"tipo", "resultado"})
)
