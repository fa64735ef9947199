package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasActiveSubscription(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		user *User
		want bool
	}{
		{"nil user", nil, false},
		{"not subscribed", &User{IsSubscribed: false, SubscriptionExpiresAt: &future}, false},
		{"no expiry", &User{IsSubscribed: true}, true},
		{"future expiry", &User{IsSubscribed: true, SubscriptionExpiresAt: &future}, true},
		{"expired", &User{IsSubscribed: true, SubscriptionExpiresAt: &past}, false},
		{"expires exactly now", &User{IsSubscribed: true, SubscriptionExpiresAt: &now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.HasActiveSubscription(now))
		})
	}
}

func TestAssembleSource(t *testing.T) {
	p := &Problem{
		TopCode:    map[string]string{"python": "import sys"},
		BottomCode: map[string]string{"python": "print(solve())"},
	}
	assert.Equal(t, "import sys\ndef solve(): pass\nprint(solve())", p.AssembleSource("python", "def solve(): pass"))
	assert.Equal(t, "int main(){}", p.AssembleSource("cpp", "int main(){}"))
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Python", LanguageName(71))
	assert.Equal(t, "C++", LanguageName(54))
	assert.Equal(t, UnknownLanguage, LanguageName(9999))

	lang, ok := LanguageByID(62)
	assert.True(t, ok)
	assert.Equal(t, "java", lang.Slug)
	assert.Len(t, Languages(), len(languages))
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, DifficultyHard.Valid())
	assert.False(t, Difficulty("Hard").Valid())
	assert.True(t, InterviewInProgress.Valid())
	assert.False(t, InterviewStatus("cancelled").Valid())
	assert.True(t, ValidVoteType(VoteDown))
	assert.False(t, ValidVoteType(VoteNone))
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusError.Terminal())
}

func TestPriceForPlan(t *testing.T) {
	p, ok := PriceForPlan(PlanPremiumYearly)
	assert.True(t, ok)
	assert.Equal(t, 365*24*time.Hour, p.Duration)

	_, ok = PriceForPlan(PlanFreemium)
	assert.False(t, ok)
}
