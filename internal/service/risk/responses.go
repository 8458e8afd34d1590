package risk

import (
	"fmt"
	"strings"
)

// CrisisResponse terminates a consultation. It is returned verbatim and
// never passes through the generation capability.
const CrisisResponse = `⚠️ URGENT ⚠️

What you describe sounds like you may be going through a crisis.
You are not alone, and help is available right now:

• Call your local emergency number immediately.
• If you are in the US, call or text 988 (Suicide & Crisis Lifeline).
• If you can, reach out to someone you trust and stay with them.

This system cannot replace a professional. Please contact one of the
resources above right away.`

// urgentCareAdvice is attached to HIGH-risk verdicts; the consultation
// continues to advisory generation afterwards.
func urgentCareAdvice(keywords []string) string {
	hint := ""
	if len(keywords) > 0 {
		limit := len(keywords)
		if limit > 3 {
			limit = 3
		}
		hint = fmt.Sprintf(" (%s)", strings.Join(keywords[:limit], ", "))
	}

	return fmt.Sprintf(`⚠️ Important health notice%s

Based on what you describe, we strongly recommend visiting a hospital
as soon as possible.

Before you go:
1. Stay calm and avoid strenuous activity.
2. Have someone accompany you if possible.
3. Bring a list of any medication you are taking.
4. Note when the symptoms started.

This system provides health information only and cannot replace a
doctor's examination.`, hint)
}
