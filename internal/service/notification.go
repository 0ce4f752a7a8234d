package service

import "html"

// confirmationEmailBody 提交确认邮件 HTML 模板
// 占位符依次为：家长姓名、儿童全名、申请编号
const confirmationEmailBody = `<html>
<head>
    <title>Application Confirmation</title>
</head>
<body>
    <h2>Application Submitted Successfully!</h2>
    <p>Dear %s,</p>
    <p>Thank you for submitting an admission application for %s.</p>
    <p><strong>Application ID:</strong> %s</p>
    <p><strong>Status:</strong> Pending Review</p>
    <p>We will contact you within 3-5 business days regarding the next steps.</p>
    <br>
    <p>Best regards,<br>Crystal Pre-School Admissions Team</p>
</body>
</html>`

// htmlEscape 转义用户提供的文本后再嵌入邮件正文
func htmlEscape(s string) string {
	return html.EscapeString(s)
}
