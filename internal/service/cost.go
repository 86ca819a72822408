package service

import "github.com/pribylovaa/orange-copywriter/internal/models"

// estimateCost — линейная оценка по числу символов промпта и ответа.
func (s *Service) estimateCost(backend string, inputChars, outputChars int) models.Cost {
	p := s.pricing[backend]

	usd := float64(inputChars)/1000*p.InputPer1K + float64(outputChars)/1000*p.OutputPer1K

	return models.Cost{
		InputChars:  inputChars,
		OutputChars: outputChars,
		USD:         usd,
		INR:         usd * s.usdToINR,
	}
}
