package migrations

func init() {
	Migrations.MustRegister(execFile("live_question_sessions.up.sql"), dropTable("live_question_sessions"))
}
