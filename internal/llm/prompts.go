package llm

const judgeContradictionPrompt = `You are evaluating whether two answers to moral questions express contradictory commitments.

Question A: %s
Answer A: %s

Question B: %s
Answer B: %s

Consider whether the moral principles implied by each answer can both be held consistently. Explain your reasoning briefly, then end with a single line of exactly this form:

Conclusion: YES - <one sentence> (if the answers contradict each other)
Conclusion: NO - <one sentence> (if they are consistent)`

const consistencyScorePrompt = `Rate the overall internal consistency of this person's moral reasoning on a scale of 0-100, where 100 means perfectly consistent principles across all answers and 0 means thoroughly self-contradictory.

Answers:
%s

Respond with ONLY the integer score. No explanation, no formatting.`

const alignmentPrompt = `Analyze how strongly this person's answers align with each moral framework.

Frameworks:
%s

Answers:
%s

Assign each framework a percentage; percentages must sum to 100. Also extract 3-5 key moral principles the person appears to hold, and optionally any meta-principles or subtle patterns you notice.

Respond ONLY with JSON, no markdown fences:
{
  "alignment": {"deontological": 0, "utilitarian": 0, "virtue_ethics": 0, "care_ethics": 0, "contractarian": 0},
  "key_principles": ["principle 1", "principle 2", "principle 3"],
  "meta_principles": [],
  "subtle_patterns": []
}`

const stageReadinessPrompt = `A user is working through stages of moral reasoning. The current stage is:

Stage: %s
Description: %s
Expected reasoning: %s

Their answers to this stage's questions:
%s

Do these answers demonstrate the reasoning this stage describes? Answer only "yes" or "no". No explanation.`

const generateQuestionPrompt = `Write one new moral dilemma question for this stage of moral development:

Stage: %s
Description: %s
Example prompts for this stage:
%s

Questions already in the bank (do not duplicate their themes):
%s

The question should be answerable in a few sentences and force a concrete moral commitment. Tag it with 2-4 lowercase single-word topic tags.

Respond ONLY with JSON, no markdown fences:
{"text": "the question", "tags": ["tag1", "tag2"]}`

const resolutionFeedbackPrompt = `A user discovered a tension between two of their moral commitments and revised one answer to resolve it.

Question A: %s
Original answer A: %s

Question B: %s
Original answer B: %s

Why the answers conflicted: %s

Their revised answer: %s
Their reasoning for the revision: %s

Write 2-3 sentences of reflective feedback on what this revision reveals about their moral reasoning. Be specific and encouraging, not generic. Respond with only the feedback text.`
