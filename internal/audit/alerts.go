package audit

import (
	"fmt"
	"sync"
	"time"
)

// ThresholdRule is a simple count-over-window suspicious-activity rule
// (§4.6 HasSuspiciousActivity). Conditional policy beyond grant/deny on a
// URI+verb is explicitly out of scope for this service, so only plain
// counting rules are offered here, not a general expression language.
type ThresholdRule struct {
	Name       string
	ChangeType ChangeType // empty matches every change type
	Threshold  int
	Window     time.Duration
	GroupBy    func(r *Record) string
}

// DefaultThresholdRules covers the bulk-mutation patterns worth flagging
// for this service's mutation kinds. A rule matches one exact ChangeType or,
// when ChangeType is empty, every change type: bulk_permission_changes and
// bulk_deletes carry no ChangeType, so each counts every record a principal
// appends, not only permission changes or deletes.
func DefaultThresholdRules() []ThresholdRule {
	byChangedBy := func(r *Record) string { return r.ChangedBy }
	return []ThresholdRule{
		{Name: "bulk_permission_changes", ChangeType: "", Threshold: 100, Window: 5 * time.Minute, GroupBy: byChangedBy},
		{Name: "bulk_deletes", ChangeType: "", Threshold: 50, Window: 5 * time.Minute, GroupBy: byChangedBy},
		{Name: "bulk_deny_grants", ChangeType: ChangeDenyPermission, Threshold: 20, Window: 1 * time.Minute, GroupBy: byChangedBy},
	}
}

type alertCounter struct {
	counts []time.Time
}

// AlertDetector evaluates appended records against a set of ThresholdRules
// and reports which ones have tripped.
type AlertDetector struct {
	mu       sync.Mutex
	rules    []ThresholdRule
	counters map[string]*alertCounter
}

// NewAlertDetector returns a detector evaluating the given rules.
func NewAlertDetector(rules []ThresholdRule) *AlertDetector {
	return &AlertDetector{
		rules:    rules,
		counters: make(map[string]*alertCounter),
	}
}

// Alert describes one tripped ThresholdRule.
type Alert struct {
	RuleName string
	Count    int
	Threshold int
	Record   *Record
}

// Check evaluates record against every rule and returns the alerts it
// trips, if any.
func (d *AlertDetector) Check(record *Record) []Alert {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var alerts []Alert
	for _, rule := range d.rules {
		if rule.ChangeType != "" && rule.ChangeType != record.ChangeType {
			continue
		}
		groupValue := ""
		if rule.GroupBy != nil {
			groupValue = rule.GroupBy(record)
		}
		key := fmt.Sprintf("%s:%s", rule.Name, groupValue)
		count := d.increment(key, rule.Window)
		if count >= rule.Threshold {
			alerts = append(alerts, Alert{RuleName: rule.Name, Count: count, Threshold: rule.Threshold, Record: record})
		}
	}
	return alerts
}

func (d *AlertDetector) increment(key string, window time.Duration) int {
	now := time.Now()
	c, ok := d.counters[key]
	if !ok {
		c = &alertCounter{}
		d.counters[key] = c
	}
	cutoff := now.Add(-window)
	fresh := c.counts[:0]
	for _, t := range c.counts {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	fresh = append(fresh, now)
	c.counts = fresh
	return len(c.counts)
}
