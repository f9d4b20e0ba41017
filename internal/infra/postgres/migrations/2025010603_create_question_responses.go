package migrations

func init() {
	Migrations.MustRegister(execFile("question_responses.up.sql"), dropTable("question_responses"))
}
