package app

import (
	"errors"
	"fmt"
)

// Failure ошибка расчёта для одной аннотации.
// Index равен -1, если ошибка относится ко всему сэмплу или полю.
type Failure struct {
	SampleID string
	Field    string
	Index    int
	Err      error
}

func (f Failure) Error() string {
	switch {
	case f.Field == "":
		return fmt.Sprintf("sample %s: %v", f.SampleID, f.Err)
	case f.Index < 0:
		return fmt.Sprintf("sample %s field %s: %v", f.SampleID, f.Field, f.Err)
	}
	return fmt.Sprintf("sample %s field %s[%d]: %v", f.SampleID, f.Field, f.Index, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report итог пакетного расчёта
type Report struct {
	Samples   int       // обработано сэмплов
	Updated   int       // аннотаций с записанной площадью
	Skipped   int       // аннотаций, где площадь уже была
	Converted int       // масок, превращённых в полилинии
	Failures  []Failure // ошибки по аннотациям, в порядке сэмплов
}

// Err объединяет все ошибки отчёта; nil, если ошибок нет.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

func (r *Report) merge(o sampleReport) {
	r.Samples++
	r.Updated += o.updated
	r.Skipped += o.skipped
	r.Converted += o.converted
	r.Failures = append(r.Failures, o.failures...)
}

type sampleReport struct {
	updated   int
	skipped   int
	converted int
	failures  []Failure
}

func (s *sampleReport) fail(sampleID, field string, index int, err error) {
	s.failures = append(s.failures, Failure{SampleID: sampleID, Field: field, Index: index, Err: err})
}
