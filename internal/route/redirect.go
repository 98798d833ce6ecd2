package route

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Rule replaces a leading From prefix with To.
type Rule struct {
	From string
	To   string
}

// Rules is an ordered list of prefix rewrites. Every matching rule applies,
// each one testing the path produced by the rules before it.
type Rules []Rule

// NewRules builds rules from the configured mapping, ordered by prefix so the
// result does not depend on map iteration.
func NewRules(redirects map[string]string) Rules {
	rules := make(Rules, 0, len(redirects))
	for from, to := range redirects {
		if from == "" {
			continue
		}
		rules = append(rules, Rule{From: from, To: to})
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].From < rules[j].From
	})
	return rules
}

// Apply rewrites path and calls onRewrite for every rule that matched.
func (r Rules) Apply(path string, onRewrite func(rule Rule, result string)) string {
	for _, rule := range r {
		if !strings.HasPrefix(path, rule.From) {
			continue
		}
		path = strings.Replace(path, rule.From, rule.To, 1)
		if onRewrite != nil {
			onRewrite(rule, path)
		}
	}
	return path
}

// Rewriter applies Rules and logs every rewrite at debug level.
type Rewriter struct {
	rules  Rules
	logger *logrus.Logger
}

// NewRewriter wraps rules with a logger; a nil logger disables the diagnostic.
func NewRewriter(rules Rules, logger *logrus.Logger) *Rewriter {
	return &Rewriter{rules: rules, logger: logger}
}

// Rewrite returns path with all matching prefixes replaced.
func (w *Rewriter) Rewrite(path string) string {
	if w == nil || len(w.rules) == 0 {
		return path
	}
	return w.rules.Apply(path, func(rule Rule, result string) {
		if w.logger == nil {
			return
		}
		w.logger.WithFields(logrus.Fields{
			"action": "redirect",
			"prefix": rule.From,
			"to":     result,
		}).Debug("path rewritten")
	})
}

// Rules returns the configured rules in application order.
func (w *Rewriter) Rules() Rules {
	if w == nil {
		return nil
	}
	return append(Rules(nil), w.rules...)
}
